package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	CommunityKeyPrefix = "community:%s"
	JobKeyPrefix       = "job:%d"
)

const (
	UserTTL      = 5 * time.Minute
	CommunityTTL = 10 * time.Minute
	JobTTL       = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func CommunityKey(slug string) string {
	return fmt.Sprintf(CommunityKeyPrefix, slug)
}

func JobKey(jobID uint) string {
	return fmt.Sprintf(JobKeyPrefix, jobID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateCommunity(ctx context.Context, slug string) {
	Invalidate(ctx, CommunityKey(slug))
}

func InvalidateJob(ctx context.Context, jobID uint) {
	Invalidate(ctx, JobKey(jobID))
}
