package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"buhoeats/api/internal/apperr"
	"buhoeats/api/internal/config"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/policy"
	"buhoeats/api/internal/store"
)

const autoBanReason = "strike threshold reached"

type ModerationService struct {
	store   store.Store
	ratings *RatingAggregator
	cfg     config.ModerationConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewModerationService(st store.Store, ratings *RatingAggregator, cfg config.ModerationConfig, log zerolog.Logger) *ModerationService {
	if cfg.StrikeThreshold <= 0 {
		cfg.StrikeThreshold = 3
	}
	return &ModerationService{
		store:   st,
		ratings: ratings,
		cfg:     cfg,
		log:     log.With().Str("component", "moderation").Logger(),
		now:     time.Now,
	}
}

type RejectWithStrikeRequest struct {
	ReportID int64
	AdminID  int64
	// UserID overrides the struck user. The review author is used when nil.
	UserID *int64
}

type BanRequest struct {
	AdminID int64
	UserID  int64
	Reason  *string
}

type UnbanRequest struct {
	AdminID      int64
	UserID       int64
	ResetStrikes bool
}

type ModerationResult struct {
	ReportID      int64
	Status        models.ReportStatus
	ReviewRemoved bool

	UserID     int64
	Strikes    int
	Banned     bool
	AutoBanned bool

	ReviewsPurged         bool
	RestaurantsRecomputed []int64
	RestaurantsToggled    int64
	SessionsRevoked       int64
}

// pendingReport is a locked pending report together with its review and
// the admin acting on it.
type pendingReport struct {
	admin  models.User
	report models.ReviewReport
	review models.Review
}

func (s *ModerationService) loadAdmin(ctx context.Context, tx store.Store, adminID int64) (models.User, error) {
	admin, err := tx.Users().GetByID(ctx, adminID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.User{}, apperr.Unauthorized("acting account not found")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load admin %d: %w", adminID, err)
	}
	return admin, nil
}

func (s *ModerationService) openReport(ctx context.Context, tx store.Store, reportID, adminID int64) (pendingReport, error) {
	admin, err := s.loadAdmin(ctx, tx, adminID)
	if err != nil {
		return pendingReport{}, err
	}
	if err := policy.CanModerate(admin, policy.Target{Action: policy.ActionResolveReport}).Err(); err != nil {
		return pendingReport{}, err
	}

	report, err := tx.Reports().GetForUpdate(ctx, reportID)
	if err != nil {
		return pendingReport{}, storeErr(err)
	}
	if report.Status != models.ReportStatusPending {
		return pendingReport{}, apperr.AlreadyProcessed("report already processed").With("status", report.Status)
	}

	review, err := tx.Reviews().GetByIDForUpdate(ctx, report.ReviewID)
	if errors.Is(err, store.ErrReviewNotFound) {
		return pendingReport{}, apperr.NotFound("reported review not found")
	}
	if err != nil {
		return pendingReport{}, fmt.Errorf("load review %d: %w", report.ReviewID, err)
	}

	return pendingReport{admin: admin, report: report, review: review}, nil
}

// resolve performs the pendiente -> status transition. Losing a race with
// another resolution surfaces as AlreadyProcessed and rolls back the caller.
func (s *ModerationService) resolve(ctx context.Context, tx store.Store, reportID int64, status models.ReportStatus, adminID int64) error {
	ok, err := tx.Reports().Resolve(ctx, reportID, status, adminID, s.now())
	if err != nil {
		return fmt.Errorf("resolve report %d: %w", reportID, err)
	}
	if !ok {
		return apperr.AlreadyProcessed("report already processed")
	}
	return nil
}

func (s *ModerationService) ApproveReport(ctx context.Context, reportID, adminID int64) (ModerationResult, error) {
	result := ModerationResult{ReportID: reportID, Status: models.ReportStatusApproved}

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := s.openReport(ctx, tx, reportID, adminID); err != nil {
			return err
		}
		return s.resolve(ctx, tx, reportID, models.ReportStatusApproved, adminID)
	})
	if err != nil {
		return ModerationResult{}, err
	}

	s.log.Info().Int64("report_id", reportID).Int64("admin_id", adminID).Msg("report approved")
	return result, nil
}

// RejectReview upholds a report: the review is removed and the report is
// closed as rechazado. An already inactive review only closes the report.
func (s *ModerationService) RejectReview(ctx context.Context, reportID, adminID int64) (ModerationResult, error) {
	result := ModerationResult{ReportID: reportID, Status: models.ReportStatusRejected}

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		pr, err := s.openReport(ctx, tx, reportID, adminID)
		if err != nil {
			return err
		}
		result.UserID = pr.review.UserID

		if pr.review.IsActive {
			removed, err := tx.Reviews().Deactivate(ctx, pr.review.ID)
			if err != nil {
				return fmt.Errorf("deactivate review %d: %w", pr.review.ID, err)
			}
			result.ReviewRemoved = removed
		}

		if err := s.resolve(ctx, tx, reportID, models.ReportStatusRejected, adminID); err != nil {
			return err
		}

		if result.ReviewRemoved {
			recomputed, err := s.ratings.recomputeMany(ctx, tx, pr.review.RestaurantID)
			if err != nil {
				return err
			}
			result.RestaurantsRecomputed = recomputed
		}
		return nil
	})
	if err != nil {
		return ModerationResult{}, err
	}

	s.log.Info().
		Int64("report_id", reportID).
		Int64("admin_id", adminID).
		Bool("review_removed", result.ReviewRemoved).
		Msg("report rejected")
	return result, nil
}

// RejectWithStrike rejects the report and strikes the target user. Reaching
// the strike threshold bans the user exactly once.
func (s *ModerationService) RejectWithStrike(ctx context.Context, req RejectWithStrikeRequest) (ModerationResult, error) {
	result := ModerationResult{ReportID: req.ReportID, Status: models.ReportStatusRejected}

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		pr, err := s.openReport(ctx, tx, req.ReportID, req.AdminID)
		if err != nil {
			return err
		}

		targetID := pr.review.UserID
		if req.UserID != nil {
			targetID = *req.UserID
		}
		target, err := tx.Users().GetByIDForUpdate(ctx, targetID)
		if err != nil {
			return storeErr(err)
		}

		var restaurantOwner *int64
		restaurant, err := tx.Restaurants().GetByID(ctx, pr.review.RestaurantID)
		switch {
		case err == nil:
			restaurantOwner = restaurant.OwnerID
		case !errors.Is(err, store.ErrRestaurantNotFound):
			return fmt.Errorf("load restaurant %d: %w", pr.review.RestaurantID, err)
		}

		decision := policy.CanModerate(pr.admin, policy.Target{
			Action:            policy.ActionStrike,
			User:              &target,
			RestaurantOwnerID: restaurantOwner,
		})
		if err := decision.Err(); err != nil {
			return err
		}

		result.UserID = target.ID
		result.Strikes = target.Strikes
		result.Banned = !target.IsActive

		if !pr.review.IsActive {
			return s.resolve(ctx, tx, req.ReportID, models.ReportStatusRejected, req.AdminID)
		}

		removed, err := tx.Reviews().Deactivate(ctx, pr.review.ID)
		if err != nil {
			return fmt.Errorf("deactivate review %d: %w", pr.review.ID, err)
		}
		result.ReviewRemoved = removed

		strikes, err := tx.Users().IncrementStrikes(ctx, target.ID)
		if err != nil {
			return fmt.Errorf("strike user %d: %w", target.ID, err)
		}
		result.Strikes = strikes

		affected := []int64{pr.review.RestaurantID}
		if strikes >= s.cfg.StrikeThreshold {
			flipped, err := tx.Users().Deactivate(ctx, target.ID)
			if err != nil {
				return fmt.Errorf("ban user %d: %w", target.ID, err)
			}
			result.Banned = true
			if flipped {
				result.AutoBanned = true
				cascade, err := s.cascadeBan(ctx, tx, target, s.cfg.PurgeReviewsOnAutoBan)
				if err != nil {
					return err
				}
				affected = append(affected, cascade.restaurants...)
				result.ReviewsPurged = s.cfg.PurgeReviewsOnAutoBan
				result.RestaurantsToggled = cascade.toggled
				result.SessionsRevoked = cascade.sessions
			}
		}

		if err := s.resolve(ctx, tx, req.ReportID, models.ReportStatusRejected, req.AdminID); err != nil {
			return err
		}

		recomputed, err := s.ratings.recomputeMany(ctx, tx, affected...)
		if err != nil {
			return err
		}
		result.RestaurantsRecomputed = recomputed
		return nil
	})
	if err != nil {
		return ModerationResult{}, err
	}

	s.log.Info().
		Int64("report_id", req.ReportID).
		Int64("admin_id", req.AdminID).
		Int64("user_id", result.UserID).
		Int("strikes", result.Strikes).
		Bool("auto_banned", result.AutoBanned).
		Msg("report rejected with strike")

	if result.AutoBanned {
		reason := autoBanReason
		s.writeAudit(ctx, models.AuditEntry{
			AdminID:      req.AdminID,
			Action:       models.AuditActionBan,
			TargetUserID: result.UserID,
			Reason:       &reason,
		})
	}
	return result, nil
}

type banCascade struct {
	restaurants []int64
	toggled     int64
	sessions    int64
}

// cascadeBan applies the side effects of a user losing access: optionally
// their reviews, their restaurants when they are an owner, and their
// sessions.
func (s *ModerationService) cascadeBan(ctx context.Context, tx store.Store, target models.User, purgeReviews bool) (banCascade, error) {
	var out banCascade

	if purgeReviews {
		restaurants, err := tx.Reviews().DeactivateByUser(ctx, target.ID)
		if err != nil {
			return banCascade{}, fmt.Errorf("remove reviews of user %d: %w", target.ID, err)
		}
		out.restaurants = restaurants
	}

	if target.Role == models.UserRoleOwner {
		toggled, err := tx.Restaurants().SetActiveByOwner(ctx, target.ID, false)
		if err != nil {
			return banCascade{}, fmt.Errorf("deactivate restaurants of owner %d: %w", target.ID, err)
		}
		out.toggled = toggled
	}

	revoked, err := tx.Sessions().DeleteByUser(ctx, target.ID)
	if err != nil {
		return banCascade{}, fmt.Errorf("revoke sessions of user %d: %w", target.ID, err)
	}
	out.sessions = revoked
	return out, nil
}

// BanUser bans a user outright. The strike counter is forced to the
// threshold and every review of the user is removed.
func (s *ModerationService) BanUser(ctx context.Context, req BanRequest) (ModerationResult, error) {
	result := ModerationResult{UserID: req.UserID, Strikes: s.cfg.StrikeThreshold, Banned: true, ReviewsPurged: true}

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		admin, err := s.loadAdmin(ctx, tx, req.AdminID)
		if err != nil {
			return err
		}
		target, err := tx.Users().GetByIDForUpdate(ctx, req.UserID)
		if err != nil {
			return storeErr(err)
		}
		if err := policy.CanModerate(admin, policy.Target{Action: policy.ActionBan, User: &target}).Err(); err != nil {
			return err
		}

		if err := tx.Users().Ban(ctx, target.ID, s.cfg.StrikeThreshold); err != nil {
			return fmt.Errorf("ban user %d: %w", target.ID, err)
		}

		cascade, err := s.cascadeBan(ctx, tx, target, true)
		if err != nil {
			return err
		}
		result.RestaurantsToggled = cascade.toggled
		result.SessionsRevoked = cascade.sessions

		recomputed, err := s.ratings.recomputeMany(ctx, tx, cascade.restaurants...)
		if err != nil {
			return err
		}
		result.RestaurantsRecomputed = recomputed
		return nil
	})
	if err != nil {
		return ModerationResult{}, err
	}

	s.log.Info().Int64("admin_id", req.AdminID).Int64("user_id", req.UserID).Msg("user banned")
	s.writeAudit(ctx, models.AuditEntry{
		AdminID:      req.AdminID,
		Action:       models.AuditActionBan,
		TargetUserID: req.UserID,
		Reason:       req.Reason,
	})
	return result, nil
}

// UnbanUser restores access. Reviews removed by the ban stay removed.
func (s *ModerationService) UnbanUser(ctx context.Context, req UnbanRequest) (ModerationResult, error) {
	result := ModerationResult{UserID: req.UserID}

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		admin, err := s.loadAdmin(ctx, tx, req.AdminID)
		if err != nil {
			return err
		}
		target, err := tx.Users().GetByIDForUpdate(ctx, req.UserID)
		if err != nil {
			return storeErr(err)
		}
		if err := policy.CanModerate(admin, policy.Target{Action: policy.ActionUnban, User: &target}).Err(); err != nil {
			return err
		}

		if err := tx.Users().Unban(ctx, target.ID, req.ResetStrikes); err != nil {
			return fmt.Errorf("unban user %d: %w", target.ID, err)
		}
		result.Strikes = target.Strikes
		if req.ResetStrikes {
			result.Strikes = 0
		}

		if target.Role == models.UserRoleOwner {
			toggled, err := tx.Restaurants().SetActiveByOwner(ctx, target.ID, true)
			if err != nil {
				return fmt.Errorf("reactivate restaurants of owner %d: %w", target.ID, err)
			}
			result.RestaurantsToggled = toggled
		}
		return nil
	})
	if err != nil {
		return ModerationResult{}, err
	}

	s.log.Info().
		Int64("admin_id", req.AdminID).
		Int64("user_id", req.UserID).
		Bool("reset_strikes", req.ResetStrikes).
		Msg("user unbanned")

	var reason *string
	if req.ResetStrikes {
		r := "strikes reset"
		reason = &r
	}
	s.writeAudit(ctx, models.AuditEntry{
		AdminID:      req.AdminID,
		Action:       models.AuditActionUnban,
		TargetUserID: req.UserID,
		Reason:       reason,
	})
	return result, nil
}

// writeAudit records an admin action after the fact. A failure here never
// undoes or fails the action itself.
func (s *ModerationService) writeAudit(ctx context.Context, entry models.AuditEntry) {
	if err := s.store.Audit().Insert(ctx, entry); err != nil {
		s.log.Error().
			Err(err).
			Int64("admin_id", entry.AdminID).
			Str("action", string(entry.Action)).
			Int64("target_user_id", entry.TargetUserID).
			Msg("write admin audit entry failed")
	}
}
