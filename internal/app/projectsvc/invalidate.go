package projectsvc

import (
	"context"

	"github.com/dalemusser/teamgather/internal/app/system/cachekey"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// invalidationKeys lists the entries that embed the given projects and
// users: each project's info, and each user's info and project list.
// Duplicates are dropped; order follows the arguments.
func invalidationKeys(projectIDs, userIDs []primitive.ObjectID) []string {
	seen := make(map[string]struct{}, len(projectIDs)+2*len(userIDs))
	keys := make([]string, 0, len(projectIDs)+2*len(userIDs))
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for _, id := range projectIDs {
		add(cachekey.ProjectInfo(id.Hex()))
	}
	for _, id := range userIDs {
		add(cachekey.UserInfo(id.Hex()))
		add(cachekey.UserProjects(id.Hex()))
	}
	return keys
}

// invalidate runs after commit. It never fails the mutation: a backend
// error leaves stale entries until the next write or the TTL.
func (s *Service) invalidate(ctx context.Context, op string, projectIDs, userIDs []primitive.ObjectID) {
	keys := invalidationKeys(projectIDs, userIDs)
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.invalidateTimeout)
	defer cancel()

	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("committed without cache invalidation",
			zap.String("op", op),
			zap.Int("keys", len(keys)),
			zap.Error(err))
		return
	}
	s.log.Debug("cache invalidated",
		zap.String("op", op),
		zap.Strings("keys", keys))
}
