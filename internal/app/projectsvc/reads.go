package projectsvc

import (
	"context"
	"fmt"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/cache"
	"github.com/dalemusser/teamgather/internal/app/system/cachekey"
	"github.com/dalemusser/teamgather/internal/domain/membership"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserInfo returns the user's view, from cache when present.
func (s *Service) UserInfo(ctx context.Context, userID primitive.ObjectID) (membership.UserView, error) {
	return cache.GetOrLoad(ctx, s.cache, cachekey.UserInfo(userID.Hex()), func(ctx context.Context) (membership.UserView, error) {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return membership.UserView{}, err
		}
		return membership.BuildUserView(u), nil
	})
}

// UserProjects returns every project the user belongs to, sorted by name.
func (s *Service) UserProjects(ctx context.Context, userID primitive.ObjectID) ([]membership.ProjectView, error) {
	return cache.GetOrLoad(ctx, s.cache, cachekey.UserProjects(userID.Hex()), func(ctx context.Context) ([]membership.ProjectView, error) {
		projects, err := s.projects.ListByMember(ctx, userID)
		if err != nil {
			return nil, err
		}
		views := make([]membership.ProjectView, 0, len(projects))
		for i := range projects {
			views = append(views, membership.BuildProjectView(&projects[i]))
		}
		return views, nil
	})
}

func (s *Service) projectView(ctx context.Context, projectID primitive.ObjectID) (membership.ProjectView, error) {
	return cache.GetOrLoad(ctx, s.cache, cachekey.ProjectInfo(projectID.Hex()), func(ctx context.Context) (membership.ProjectView, error) {
		p, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return membership.ProjectView{}, err
		}
		return membership.BuildProjectView(p), nil
	})
}

// ProjectInfo returns the project's view if principalID is a member of it.
// Membership is checked against both cached mirrors.
func (s *Service) ProjectInfo(ctx context.Context, projectID, principalID primitive.ObjectID) (membership.ProjectView, error) {
	pv, err := s.projectView(ctx, projectID)
	if err != nil {
		return membership.ProjectView{}, err
	}
	uv, err := s.UserInfo(ctx, principalID)
	if err != nil {
		return membership.ProjectView{}, err
	}
	if _, ok := membership.FindMembershipView(pv, uv); !ok {
		return membership.ProjectView{}, fmt.Errorf("not a member of project %s: %w", pv.ID, apperr.ErrForbidden)
	}
	return pv, nil
}

// NonMembers lists the users that could be added to the project, sorted by
// name. Any member may ask. The result is not cached.
func (s *Service) NonMembers(ctx context.Context, projectID, principalID primitive.ObjectID) ([]membership.UserView, error) {
	project, _, err := s.requireMember(ctx, projectID, principalID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListExcluding(ctx, membership.UserIDs(project))
	if err != nil {
		return nil, err
	}
	views := make([]membership.UserView, 0, len(users))
	for i := range users {
		views = append(views, membership.BuildUserView(&users[i]))
	}
	return views, nil
}

// SignOut drops every cache entry derived from the user.
func (s *Service) SignOut(ctx context.Context, userID primitive.ObjectID) {
	if err := s.cache.DelPrefix(ctx, cachekey.UserPrefix(userID.Hex())); err != nil {
		s.log.Warn("sign-out cache flush failed", zap.String("user_id", userID.Hex()), zap.Error(err))
	}
}
