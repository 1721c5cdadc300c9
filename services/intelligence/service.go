package ai

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	appointmentRepo "github.com/tilak5758/barber-salon-backend/database/repository/appointment"
	barberRepo "github.com/tilak5758/barber-salon-backend/database/repository/barber"
	"github.com/tilak5758/barber-salon-backend/models"

	"go.uber.org/zap"
)

// RecommendRequest narrows the candidate pool.
type RecommendRequest struct {
	City  string `form:"city"`
	Limit int    `form:"limit"`
}

// RecommendResult is the ranked list plus an optional generated blurb.
type RecommendResult struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Summary         string                  `json:"summary,omitempty"`
}

// Service ranks barbers for a customer. The ranking itself is a local
// heuristic over rating, volume, and verification; the language model only
// writes the optional summary, so recommendations keep working when it is
// unavailable.
type Service interface {
	Recommend(ctx context.Context, actor models.Actor, req RecommendRequest) (*RecommendResult, error)
}

// DefaultService implements Service. Gemini may be nil.
type DefaultService struct {
	Barbers      barberRepo.Repository
	Appointments appointmentRepo.Repository
	Context      ContextStore
	Gemini       *GeminiClient
	Logger       *zap.Logger
}

func NewService(
	barbers barberRepo.Repository,
	appts appointmentRepo.Repository,
	store ContextStore,
	gemini *GeminiClient,
	logger *zap.Logger,
) *DefaultService {
	return &DefaultService{
		Barbers:      barbers,
		Appointments: appts,
		Context:      store,
		Gemini:       gemini,
		Logger:       logger,
	}
}

func (s *DefaultService) Recommend(ctx context.Context, actor models.Actor, req RecommendRequest) (*RecommendResult, error) {
	limit := req.Limit
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	aiCtx, err := s.Context.Get(ctx, actor.ID)
	if err != nil {
		s.Logger.Warn("failed to load recommendation context",
			zap.String("userId", actor.ID), zap.Error(err))
		aiCtx = &models.AIContext{}
	}

	city := req.City
	if city == "" {
		city = aiCtx.PreferredCity
	}

	if history, err := s.Appointments.ListByCustomer(ctx, actor.ID); err != nil {
		s.Logger.Warn("failed to load appointment history",
			zap.String("userId", actor.ID), zap.Error(err))
	} else {
		aiCtx.RecentBarberIDs = recentBarbers(history)
	}

	candidates, err := s.Barbers.List(ctx, city, false)
	if err != nil {
		return nil, err
	}

	recs := rank(candidates, aiCtx, limit)

	result := &RecommendResult{Recommendations: recs}
	if s.Gemini != nil && len(recs) > 0 {
		summary, err := s.Gemini.GenerateContent(ctx, summaryPrompt(city, recs))
		if err != nil {
			s.Logger.Warn("summary generation failed", zap.Error(err))
		} else {
			result.Summary = strings.TrimSpace(summary)
		}
	}

	if city != "" {
		aiCtx.PreferredCity = city
		aiCtx.UpdatedAt = time.Now()
		if err := s.Context.Set(ctx, actor.ID, aiCtx); err != nil {
			s.Logger.Warn("failed to save recommendation context",
				zap.String("userId", actor.ID), zap.Error(err))
		}
	}
	return result, nil
}

// rank scores each candidate. Rating dominates, dampened by review volume so
// a single 5-star review does not outrank an established 4.8, with small
// bumps for verification and prior visits.
func rank(candidates []models.Barber, aiCtx *models.AIContext, limit int) []models.Recommendation {
	recent := make(map[string]bool, len(aiCtx.RecentBarberIDs))
	for _, id := range aiCtx.RecentBarberIDs {
		recent[id] = true
	}

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, b := range candidates {
		confidence := 1 - 1/math.Sqrt(float64(b.RatingCount)+1)
		score := b.Rating * confidence

		var reasons []string
		if b.RatingCount > 0 {
			reasons = append(reasons, fmt.Sprintf("rated %.1f by %d customers", b.Rating, b.RatingCount))
		}
		if b.IsVerified {
			score += 0.5
			reasons = append(reasons, "verified")
		}
		if recent[b.ID] {
			score += 0.25
			reasons = append(reasons, "you have visited before")
		}

		recs = append(recs, models.Recommendation{
			Barber: b,
			Score:  math.Round(score*100) / 100,
			Reason: strings.Join(reasons, ", "),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// recentBarbers extracts up to ten distinct barber IDs from the customer's
// completed appointments, newest first.
func recentBarbers(history []models.Appointment) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, appt := range history {
		if appt.Status != models.ApptCompleted || seen[appt.BarberID] {
			continue
		}
		seen[appt.BarberID] = true
		ids = append(ids, appt.BarberID)
		if len(ids) == 10 {
			break
		}
	}
	return ids
}

func summaryPrompt(city string, recs []models.Recommendation) string {
	var sb strings.Builder
	sb.WriteString("Write two friendly sentences recommending these barber shops")
	if city != "" {
		sb.WriteString(" in ")
		sb.WriteString(city)
	}
	sb.WriteString(". Mention at most three by name. Shops:\n")
	for _, r := range recs {
		fmt.Fprintf(&sb, "- %s (rating %.1f from %d reviews)\n",
			r.Barber.ShopName, r.Barber.Rating, r.Barber.RatingCount)
	}
	return sb.String()
}
