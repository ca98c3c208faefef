package quota

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/panelforge/panelforge/internal/storage"
)

// Result is the outcome of a quota check. When Allowed is false, ResetAt
// is the instant the oldest in-window token expires, i.e. when the user
// may generate again.
type Result struct {
	Allowed bool
	ResetAt time.Time
}

// Gate enforces a sliding-window generation quota for users without their
// own upstream credential. The default configuration is 1 generation per
// 7-day window. A token is consumed at check time, before any page row is
// created, so a denied request leaves no residue anywhere.
type Gate struct {
	db     *gorm.DB
	max    int
	window time.Duration
	mu     sync.Mutex // serialize check-and-consume against the sqlite writer
	now    func() time.Time
}

func NewGate(db *gorm.DB, maxGenerations int, window time.Duration) *Gate {
	return &Gate{
		db:     db,
		max:    maxGenerations,
		window: window,
		now:    time.Now,
	}
}

// Check counts the user's in-window generation records and either consumes
// a new token (allowed) or reports the reset time (denied). Runs in one
// transaction so concurrent checks cannot both consume the last token.
func (g *Gate) Check(userID string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var res Result
	err := g.db.Transaction(func(tx *gorm.DB) error {
		now := g.now().UTC()
		windowStart := now.Add(-g.window)

		var records []storage.GenerationRecord
		if err := tx.Where("user_id = ? AND created_at > ?", userID, windowStart).
			Order("created_at ASC").
			Find(&records).Error; err != nil {
			return fmt.Errorf("failed to count generation records: %w", err)
		}

		if len(records) >= g.max {
			res = Result{Allowed: false, ResetAt: records[0].CreatedAt.Add(g.window)}
			return nil
		}

		record := storage.GenerationRecord{UserID: userID, CreatedAt: now}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record generation: %w", err)
		}
		res = Result{Allowed: true}
		return nil
	})
	if err != nil {
		zap.L().Error("Quota check transaction failed", zap.String("user_id", userID), zap.Error(err))
		return Result{}, err
	}

	if !res.Allowed {
		zap.L().Info("Generation quota exceeded",
			zap.String("user_id", userID),
			zap.Time("reset_at", res.ResetAt))
	}
	return res, nil
}
