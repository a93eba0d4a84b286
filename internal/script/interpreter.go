package script

import (
	"errors"
	"fmt"
	"os"
	"slicerlogic/internal/scene"
	"strings"
	"sync"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong number of arguments")
	ErrNoSuchNode     = errors.New("no such node")
	ErrUndefinedVar   = errors.New("undefined variable")
)

// Shared evaluation state (variables) bound to one scene.
// Eval mutates the scene and must only be called on the scene's owning goroutine.
type Interpreter struct {
	scene *scene.Scene

	mu   sync.Mutex
	vars map[string]string
}

func NewInterpreter(target *scene.Scene) (new *Interpreter) {
	new = &Interpreter{
		scene: target,
		vars:  make(map[string]string),
	}
	return
}

func (interp *Interpreter) Var(name string) (value string, ok bool) {
	interp.mu.Lock()
	defer interp.mu.Unlock()
	value, ok = interp.vars[name]
	return
}

// Evaluates one command line. Blank lines and # comments are no-ops.
func (interp *Interpreter) Eval(line string) (err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	line, err = interp.expand(line)
	if err != nil {
		return
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	command, args := fields[0], fields[1:]
	switch command {
	case "set":
		if len(args) < 2 {
			err = fmt.Errorf("%w: set <var> <value>", ErrUsage)
			return
		}
		interp.mu.Lock()
		interp.vars[args[0]] = strings.Join(args[1:], " ")
		interp.mu.Unlock()
	case "unset":
		if len(args) != 1 {
			err = fmt.Errorf("%w: unset <var>", ErrUsage)
			return
		}
		interp.mu.Lock()
		delete(interp.vars, args[0])
		interp.mu.Unlock()
	case "name":
		err = interp.withNode(args, 2, -1, "name <node> <text>", func(node *scene.Node) {
			node.Name = strings.Join(args[1:], " ")
		})
	case "attr":
		err = interp.withNode(args, 3, -1, "attr <node> <key> <value>", func(node *scene.Node) {
			node.Attributes[args[1]] = strings.Join(args[2:], " ")
		})
	case "show", "hide":
		err = interp.withNode(args, 1, 1, command+" <node>", func(node *scene.Node) {
			node.Visible = command == "show"
		})
	case "select":
		err = interp.withNode(args, 1, 1, "select <node>", func(node *scene.Node) {
			if node.LabelMap {
				interp.scene.SetActiveLabelVolumeID(node.ID())
			} else {
				interp.scene.SetActiveVolumeID(node.ID())
			}
			interp.scene.PropagateVolumeSelection()
		})
	case "remove":
		if len(args) != 1 {
			err = fmt.Errorf("%w: remove <node>", ErrUsage)
			return
		}
		node := interp.scene.NodeByID(args[0])
		if node == nil {
			err = fmt.Errorf("%w: %q", ErrNoSuchNode, args[0])
			return
		}
		interp.scene.RemoveNode(node)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	return
}

// Looks up args[0] and applies fn, then fires node observers.
// maxArgs < 0 means no upper bound on argument count.
func (interp *Interpreter) withNode(args []string, minArgs, maxArgs int, usage string, fn func(*scene.Node)) (err error) {
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		err = fmt.Errorf("%w: %s", ErrUsage, usage)
		return
	}
	node := interp.scene.NodeByID(args[0])
	if node == nil {
		err = fmt.Errorf("%w: %q", ErrNoSuchNode, args[0])
		return
	}
	fn(node)
	node.Modified()
	return
}

// Replaces $var and ${var} with interpreter variables
func (interp *Interpreter) expand(line string) (expanded string, err error) {
	interp.mu.Lock()
	defer interp.mu.Unlock()

	var missing []string
	expanded = os.Expand(line, func(name string) string {
		value, ok := interp.vars[name]
		if !ok {
			missing = append(missing, name)
		}
		return value
	})
	if len(missing) > 0 {
		err = fmt.Errorf("%w: %s", ErrUndefinedVar, strings.Join(missing, ", "))
	}
	return
}
