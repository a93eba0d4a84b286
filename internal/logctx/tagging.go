package logctx

import (
	"context"
	"slicerlogic/internal/global"
)

// Tag lists stored in a context are never shared with callers. Every setter stores
// a private copy and every getter hands out a copy.

func storedTags(ctx context.Context) (tags []string) {
	tags, _ = ctx.Value(global.LogTagsKey).([]string)
	return
}

func withTags(ctx context.Context, tags []string) context.Context {
	return context.WithValue(ctx, global.LogTagsKey, tags)
}

// Returns a context whose tag list ends with newTag
func AppendCtxTag(ctx context.Context, newTag string) (newCtx context.Context) {
	old := storedTags(ctx)
	tags := make([]string, len(old), len(old)+1)
	copy(tags, old)
	newCtx = withTags(ctx, append(tags, newTag))
	return
}

// Returns a context without the most specific tag
func RemoveLastCtxTag(ctx context.Context) (newCtx context.Context) {
	old := storedTags(ctx)
	if len(old) == 0 {
		newCtx = withTags(ctx, []string{})
		return
	}
	newCtx = withTags(ctx, append([]string(nil), old[:len(old)-1]...))
	return
}

// Replaces the whole tag list. Later changes to newList do not reach the context.
func OverwriteCtxTag(ctx context.Context, newList []string) (newCtx context.Context) {
	newCtx = withTags(ctx, append([]string{}, newList...))
	return
}

// Copy of the context's tag list, empty when none was set
func GetTagList(ctx context.Context) (tags []string) {
	tags = append([]string{}, storedTags(ctx)...)
	return
}
