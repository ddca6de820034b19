package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"magicweekends/models"
	"magicweekends/services/storage"
	"magicweekends/utils"

	"github.com/go-redis/redis/v8"
)

// SessionStore persists wizards between requests.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*Wizard, error)
	Save(ctx context.Context, w *Wizard) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps each wizard as a JSON document with a sliding TTL.
// With a Sealer, identity document bytes are encrypted before they reach Redis.
type RedisSessionStore struct {
	Client *redis.Client
	TTL    time.Duration
	Sealer *storage.Sealer
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{Client: client, TTL: ttl}
}

func sessionKey(id string) string {
	return utils.WizardSessionPrefix + id
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*Wizard, error) {
	data, err := s.Client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking session: %w", err)
	}
	var w Wizard
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking session: %w", err)
	}
	if w.Errors == nil {
		w.Errors = ValidationErrors{}
	}
	if s.Sealer != nil {
		for i := range w.Draft.Travelers {
			a := w.Draft.Travelers[i].IDProof
			if a == nil || len(a.Data) == 0 {
				continue
			}
			if a.Data, err = s.Sealer.Open(a.Data, []byte(w.SessionID)); err != nil {
				return nil, fmt.Errorf("failed to open id proof of traveler %d: %w", i, err)
			}
		}
	}
	return &w, nil
}

// sealed returns a copy of w whose attachments are encrypted. w is left as is.
func (s *RedisSessionStore) sealed(w *Wizard) (*Wizard, error) {
	if s.Sealer == nil {
		return w, nil
	}
	cp := *w
	cp.Draft.Travelers = make([]models.TravelerRecord, len(w.Draft.Travelers))
	for i, t := range w.Draft.Travelers {
		if t.IDProof != nil && len(t.IDProof.Data) > 0 {
			a := *t.IDProof
			data, err := s.Sealer.Seal(a.Data, []byte(w.SessionID))
			if err != nil {
				return nil, err
			}
			a.Data = data
			t.IDProof = &a
		}
		cp.Draft.Travelers[i] = t
	}
	return &cp, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, w *Wizard) error {
	doc, err := s.sealed(w)
	if err != nil {
		return fmt.Errorf("failed to seal booking session: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal booking session: %w", err)
	}
	if err := s.Client.Set(ctx, sessionKey(w.SessionID), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store booking session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.Client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete booking session: %w", err)
	}
	return nil
}
