package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and logs instead of failing.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// TutorListKey is the directory cache key for one filter combination.
func TutorListKey(subject, approval string) string {
	return fmt.Sprintf("list:subject=%s:approval=%s", subject, approval)
}

// TutorDetailKey is the cache key of one tutor's public detail view.
func TutorDetailKey(userID uint) string {
	return fmt.Sprintf("detail:%d", userID)
}

// InvalidateTutorCache drops every cached directory entry. Profile saves,
// approval changes, reviews and user deletion all call it.
func InvalidateTutorCache(ctx context.Context, cm *CacheManager) {
	if cm == nil {
		return
	}
	SafeInvalidatePattern(ctx, cm.Tutor, "*")
}
