package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"travel-planner-backend/internal/apperr"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// AnonymousUsername is used for comments posted without a username
const AnonymousUsername = "Anonymous"

// CommentNotifier is told about comment changes after they are persisted
type CommentNotifier interface {
	CommentAdded(detailID int, comment models.Comment)
	CommentDeleted(detailID int, commentID int64)
}

// ResolverService follows references between collections: a user's saved
// tours and the comments embedded in a travel detail
type ResolverService struct {
	userRepo   *repository.UserRepository
	tourRepo   *repository.TourRepository
	detailRepo *repository.TravelDetailRepository
	notifier   CommentNotifier
	now        func() time.Time
}

// NewResolverService creates a new resolver service. A nil notifier disables
// comment events and a nil clock means time.Now.
func NewResolverService(
	userRepo *repository.UserRepository,
	tourRepo *repository.TourRepository,
	detailRepo *repository.TravelDetailRepository,
	notifier CommentNotifier,
	now func() time.Time,
) *ResolverService {
	if now == nil {
		now = time.Now
	}
	return &ResolverService{
		userRepo:   userRepo,
		tourRepo:   tourRepo,
		detailRepo: detailRepo,
		notifier:   notifier,
		now:        now,
	}
}

// ResolveUserTours returns the popular tours saved by the user in save order.
// Ids that no longer resolve are skipped.
func (s *ResolverService) ResolveUserTours(ctx context.Context, userID int) ([]models.PopularTour, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	all := s.tourRepo.All(ctx)
	byID := make(map[int]models.PopularTour, len(all))
	for _, tour := range all {
		byID[tour.ID] = tour
	}

	tours := make([]models.PopularTour, 0, len(user.Tours))
	for _, id := range user.Tours {
		tour, ok := byID[id]
		if !ok {
			log.Debug().Int("user_id", userID).Int("tour_id", id).Msg("Skipping stale tour reference")
			continue
		}
		tours = append(tours, tour)
	}
	return tours, nil
}

// AddUserTour saves a popular tour to the user's list
func (s *ResolverService) AddUserTour(ctx context.Context, userID, tourID int) (*models.PopularTour, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	tour, err := s.tourRepo.GetByID(ctx, tourID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("Tour not found in popular tours")
		}
		return nil, err
	}

	_, err = s.userRepo.Modify(ctx, userID, func(user models.User) (models.User, error) {
		if user.HasTour(tourID) {
			return user, apperr.Conflict("Tour already added")
		}
		user.Tours = append(slices.Clone(user.Tours), tourID)
		return user, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("user_id", userID).Int("tour_id", tourID).Msg("Tour added to user")
	return tour, nil
}

// RemoveUserTour removes a tour from the user's list. Nothing is written
// when the tour is not in the list.
func (s *ResolverService) RemoveUserTour(ctx context.Context, userID, tourID int) error {
	_, err := s.userRepo.Modify(ctx, userID, func(user models.User) (models.User, error) {
		kept := slices.DeleteFunc(slices.Clone(user.Tours), func(id int) bool { return id == tourID })
		if len(kept) == len(user.Tours) {
			return user, apperr.NotFound("Tour not found in user's list")
		}
		user.Tours = kept
		return user, nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("user_id", userID).Int("tour_id", tourID).Msg("Tour removed from user")
	return nil
}

// ListComments returns the comments of a travel detail
func (s *ResolverService) ListComments(ctx context.Context, detailID int) ([]models.Comment, error) {
	detail, err := s.detailRepo.GetByID(ctx, detailID)
	if err != nil {
		return nil, err
	}
	if detail.Comments == nil {
		return []models.Comment{}, nil
	}
	return detail.Comments, nil
}

// AddComment appends a comment to a travel detail
func (s *ResolverService) AddComment(ctx context.Context, detailID int, input models.CommentInput) (*models.Comment, error) {
	var created models.Comment

	_, err := s.detailRepo.Modify(ctx, detailID, func(detail models.TravelDetail) (models.TravelDetail, error) {
		text := strings.TrimSpace(input.Text)
		if text == "" {
			return detail, apperr.InvalidInput("Comment text cannot be empty")
		}
		if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
			return detail, apperr.InvalidInput("Rating must be between 1 and 5")
		}

		username := strings.TrimSpace(input.Username)
		if username == "" {
			username = AnonymousUsername
		}

		now := s.now()
		created = models.Comment{
			ID:       nextCommentID(detail.Comments, now),
			UserID:   input.UserID,
			Username: username,
			Text:     text,
			Rating:   input.Rating,
			Date:     now.UTC(),
		}
		detail.Comments = append(slices.Clone(detail.Comments), created)
		return detail, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("travel_detail_id", detailID).Int64("comment_id", created.ID).Msg("Comment added")

	if s.notifier != nil {
		s.notifier.CommentAdded(detailID, created)
	}
	return &created, nil
}

// DeleteComment removes a comment. Only the comment's author may delete it;
// a nil requester is never the author.
func (s *ResolverService) DeleteComment(ctx context.Context, detailID int, commentID int64, requesterID *int) error {
	_, err := s.detailRepo.Modify(ctx, detailID, func(detail models.TravelDetail) (models.TravelDetail, error) {
		idx := slices.IndexFunc(detail.Comments, func(c models.Comment) bool { return c.ID == commentID })
		if idx < 0 {
			return detail, apperr.NotFound("Comment not found")
		}
		if !detail.Comments[idx].OwnedBy(requesterID) {
			return detail, apperr.Forbidden("You can only delete your own comments")
		}
		detail.Comments = slices.Delete(slices.Clone(detail.Comments), idx, idx+1)
		return detail, nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("travel_detail_id", detailID).Int64("comment_id", commentID).Msg("Comment deleted")

	if s.notifier != nil {
		s.notifier.CommentDeleted(detailID, commentID)
	}
	return nil
}

// nextCommentID derives an id from the clock, bumped past existing ids so
// two comments in the same millisecond stay distinct
func nextCommentID(existing []models.Comment, now time.Time) int64 {
	id := now.UnixMilli()
	for _, c := range existing {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	return id
}
