// Remote reference classification and the local download cache
package cache

import (
	"os"
	"strings"
)

// Scheme of a uri, with any leading "[name.ext]:" annotation removed.
// Empty when the string carries no "://".
func scheme(uri string) (prefix string, ok bool) {
	index := strings.Index(uri, "://")
	if index < 0 {
		return
	}
	prefix = uri[:index]
	if bracket := strings.Index(prefix, "]:"); bracket >= 0 {
		prefix = prefix[bracket+2:]
	}
	ok = true
	return
}

// True for uris with any scheme other than file
func IsRemoteReference(uri string) (remote bool) {
	prefix, ok := scheme(uri)
	remote = ok && prefix != "file"
	return
}

// True only for file:// uris. Plain paths are neither local nor remote references.
func IsLocalReference(uri string) (local bool) {
	prefix, ok := scheme(uri)
	local = ok && prefix == "file"
	return
}

// Checks the path after "://" (or the whole string) on disk
func LocalFileExists(uri string) (exists bool) {
	path := uri
	if index := strings.Index(uri, "://"); index >= 0 {
		path = uri[index+3:]
	}
	_, err := os.Stat(path)
	exists = err == nil
	return
}
