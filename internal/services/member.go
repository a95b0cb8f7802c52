package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Yokesh17/Project--Management/internal/models"
	"github.com/Yokesh17/Project--Management/pkg/response"
	"gorm.io/gorm"
)

// MemberService manages the project_members set. Only the owner mutates it.
type MemberService struct {
	db            *gorm.DB
	activity      *ActivityService
	notifications *NotificationService
}

func NewMemberService(db *gorm.DB, activity *ActivityService, notifications *NotificationService) *MemberService {
	return &MemberService{db: db, activity: activity, notifications: notifications}
}

type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Invite adds the user with the given email to the project.
func (s *MemberService) Invite(ctx context.Context, userID, projectID uint, email string) (*models.User, error) {
	email = normalizeEmail(email)

	var invitee models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := authorizeProject(tx, projectID, userID, loadOpts{manage: true, denied: "Only the project owner can invite members"})
		if err != nil {
			return err
		}

		if err := tx.Where("email = ?", email).First(&invitee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("User not found")
			}
			return err
		}
		if invitee.ID == project.OwnerID || project.HasMember(invitee.ID) {
			return response.NewConflict("User is already a member")
		}

		if err := tx.Model(project).Association("Members").Append(&invitee); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		if err := s.activity.Record(tx, project.ID, actor(userID), "Invited user "+invitee.Email, ""); err != nil {
			return err
		}
		return s.notifications.Notify(tx, invitee.ID,
			fmt.Sprintf("You have been added to project '%s'", project.Name), models.NotificationInfo)
	})
	if err != nil {
		return nil, err
	}
	return &invitee, nil
}

// Remove takes memberID out of the project. The owner cannot be removed
// because the owner is never in the set.
func (s *MemberService) Remove(ctx context.Context, userID, projectID, memberID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := authorizeProject(tx, projectID, userID, loadOpts{manage: true, denied: "Only the project owner can remove members"})
		if err != nil {
			return err
		}

		member, err := findUser(tx, memberID)
		if err != nil {
			return err
		}
		if !project.HasMember(member.ID) {
			return response.NewConflict("User is not a member")
		}

		if err := tx.Model(project).Association("Members").Delete(member); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		return s.activity.Record(tx, project.ID, actor(userID), "Removed user "+member.Email, "")
	})
}

// List returns the owner followed by the members, for any project participant.
func (s *MemberService) List(ctx context.Context, userID, projectID uint) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	project, err := authorizeProject(db, projectID, userID, loadOpts{})
	if err != nil {
		return nil, err
	}

	owner, err := findUser(db, project.OwnerID)
	if err != nil {
		return nil, err
	}
	return append([]models.User{*owner}, project.Members...), nil
}
