package projectsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/domain/membership"
	"github.com/dalemusser/teamgather/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateProject creates a project owned by ownerID and returns its id.
func (s *Service) CreateProject(ctx context.Context, ownerID primitive.ObjectID, name string, description *string) (primitive.ObjectID, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return primitive.NilObjectID, err
	}

	var projectID primitive.ObjectID
	err = s.tx.Run(ctx, "create_project", func(ctx context.Context) error {
		p, err := s.projects.Create(ctx, name, description)
		if err != nil {
			return err
		}
		m, err := models.NewMember(p.ID, owner, models.RoleOwner, s.now())
		if err != nil {
			return fmt.Errorf("build owner member: %w: %w", apperr.ErrInternalConsistency, err)
		}
		if err := expectOne("push project member")(s.projects.PushMember(ctx, p.ID, m)); err != nil {
			return err
		}
		if err := expectOne("push user member")(s.users.PushMember(ctx, owner.ID, m)); err != nil {
			return err
		}
		projectID = p.ID
		return nil
	})
	if err != nil {
		return primitive.NilObjectID, err
	}

	s.invalidate(ctx, "create_project", nil, []primitive.ObjectID{owner.ID})
	return projectID, nil
}

// AddMember adds targetID to the project as a plain member. Only the owner
// may do this.
func (s *Service) AddMember(ctx context.Context, projectID, actingID, targetID primitive.ObjectID) (models.Member, error) {
	project, target, err := s.addable(ctx, projectID, actingID, targetID)
	if err != nil {
		return models.Member{}, err
	}

	m, err := models.NewMember(project.ID, target, models.RoleMember, s.now())
	if err != nil {
		return models.Member{}, fmt.Errorf("build member: %w: %w", apperr.ErrInternalConsistency, err)
	}

	affected := membership.UserIDs(project)
	err = s.tx.Run(ctx, "add_member", func(ctx context.Context) error {
		current, target, err := s.addable(ctx, projectID, actingID, targetID)
		if err != nil {
			return err
		}
		affected = append(affected, membership.UserIDs(current)...)
		if err := expectOne("push project member")(s.projects.PushMember(ctx, current.ID, m)); err != nil {
			return err
		}
		return expectOne("push user member")(s.users.PushMember(ctx, target.ID, m))
	})
	if err != nil {
		return models.Member{}, err
	}

	affected = append(affected, target.ID)
	s.invalidate(ctx, "add_member", []primitive.ObjectID{project.ID}, affected)
	return m, nil
}

// addable loads the project and target and checks that actingID owns the
// project and targetID is not yet on either mirror.
func (s *Service) addable(ctx context.Context, projectID, actingID, targetID primitive.ObjectID) (*models.Project, *models.User, error) {
	project, err := s.requireOwner(ctx, projectID, actingID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if _, mirrored := target.MemberFor(project.ID); mirrored || membership.HasUser(project, target.ID) {
		return nil, nil, fmt.Errorf("user %s is already a member: %w", target.ID.Hex(), apperr.ErrConflict)
	}
	return project, target, nil
}

// RemoveMember drops targetID from the project. The owner cannot be removed
// this way; deleting the project is the only path for that.
func (s *Service) RemoveMember(ctx context.Context, projectID, actingID, targetID primitive.ObjectID) error {
	project, _, err := s.removable(ctx, projectID, actingID, targetID)
	if err != nil {
		return err
	}

	affected := membership.UserIDs(project)
	err = s.tx.Run(ctx, "remove_member", func(ctx context.Context) error {
		current, m, err := s.removable(ctx, projectID, actingID, targetID)
		if err != nil {
			return err
		}
		affected = append(affected, membership.UserIDs(current)...)
		if err := expectOne("pull project member")(s.projects.PullMember(ctx, current.ID, m.ID)); err != nil {
			return err
		}
		return expectOne("pull user member")(s.users.PullMember(ctx, targetID, m.ID))
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, "remove_member", []primitive.ObjectID{project.ID}, affected)
	return nil
}

// removable loads the project and target and returns the target's
// membership, which must exist and must not be the owner's.
func (s *Service) removable(ctx context.Context, projectID, actingID, targetID primitive.ObjectID) (*models.Project, models.Member, error) {
	project, err := s.requireOwner(ctx, projectID, actingID)
	if err != nil {
		return nil, models.Member{}, err
	}
	target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return nil, models.Member{}, err
	}
	m, ok := membership.FindMembership(project, target)
	if !ok {
		return nil, models.Member{}, fmt.Errorf("user %s is not a member: %w", target.ID.Hex(), apperr.ErrNotFound)
	}
	if membership.IsOwner(m) {
		return nil, models.Member{}, fmt.Errorf("owner cannot be removed: %w", apperr.ErrForbidden)
	}
	return project, m, nil
}

// RemoveProject deletes the project and pulls its member entry from every
// member's user document. Either all of it commits or none of it does.
func (s *Service) RemoveProject(ctx context.Context, projectID, actingID primitive.ObjectID) error {
	project, err := s.requireOwner(ctx, projectID, actingID)
	if err != nil {
		return err
	}

	affected := membership.UserIDs(project)
	err = s.tx.Run(ctx, "remove_project", func(ctx context.Context) error {
		current, err := s.requireOwner(ctx, projectID, actingID)
		if err != nil {
			return err
		}
		affected = append(affected, membership.UserIDs(current)...)
		// The delete matches only the member list read above, so an entry
		// pushed after that read aborts instead of being left on its user.
		if err := expectOne("delete project")(s.projects.Delete(ctx, current.ID, membership.MemberIDs(current))); err != nil {
			return err
		}
		for _, m := range current.Members {
			if err := expectOne("pull user member")(s.users.PullMember(ctx, m.UserID, m.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, "remove_project", []primitive.ObjectID{project.ID}, affected)
	return nil
}

// UpdateProject changes the project's name and description. It touches a
// single document, so no transaction is opened.
func (s *Service) UpdateProject(ctx context.Context, projectID, actingID primitive.ObjectID, name string, description *string) error {
	project, err := s.requireOwner(ctx, projectID, actingID)
	if err != nil {
		return err
	}
	if err := expectOne("update project")(s.projects.UpdateInfo(ctx, project.ID, name, description)); err != nil {
		return err
	}

	// Members added since the check above also hold the old name in their
	// cached views.
	affected := membership.UserIDs(project)
	if current, err := s.projects.GetByID(ctx, project.ID); err == nil {
		affected = append(affected, membership.UserIDs(current)...)
	} else {
		s.log.Warn("reload after update failed",
			zap.String("project", project.ID.Hex()),
			zap.Error(err))
	}
	s.invalidate(ctx, "update_project", []primitive.ObjectID{project.ID}, affected)
	return nil
}

// loadTarget loads the user a membership change names.
func (s *Service) loadTarget(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("load user %s: %w", id.Hex(), apperr.ErrTargetNotFound)
	}
	return u, err
}

// requireOwner loads the project and acting user and checks that the acting
// user is the owner according to both mirrors.
func (s *Service) requireOwner(ctx context.Context, projectID, actingID primitive.ObjectID) (*models.Project, error) {
	project, m, err := s.requireMember(ctx, projectID, actingID)
	if err != nil {
		return nil, err
	}
	if !membership.IsOwner(m) {
		return nil, fmt.Errorf("not the owner of project %s: %w", project.ID.Hex(), apperr.ErrForbidden)
	}
	return project, nil
}

// requireMember is requireOwner without the role check.
func (s *Service) requireMember(ctx context.Context, projectID, actingID primitive.ObjectID) (*models.Project, models.Member, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, models.Member{}, err
	}
	acting, err := s.users.GetByID(ctx, actingID)
	if err != nil {
		return nil, models.Member{}, err
	}
	m, ok := membership.FindMembership(project, acting)
	if !ok {
		return nil, models.Member{}, fmt.Errorf("not a member of project %s: %w", project.ID.Hex(), apperr.ErrForbidden)
	}
	return project, m, nil
}
