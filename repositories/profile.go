package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"secure-dm/domain"
	"secure-dm/errors"

	"github.com/dgraph-io/badger/v4"
)

type IProfileRepository interface {
	domain.Directory
	Save(profile domain.Profile) error
}

// ProfileRepository is the badger-backed organization directory.
// Profiles live under "profile:{id}"; membership is a secondary index
// "member:{org}:{id}" so org listings are a single prefix scan.
type ProfileRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewProfileRepository(db *badger.DB, log *slog.Logger) ProfileRepository {
	return ProfileRepository{db: db, log: log}
}

func profileKey(userID string) []byte {
	return []byte("profile:" + userID)
}

func memberKey(organizationID, userID string) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", organizationID, userID))
}

// Save persists the profile and its membership index in one
// transaction.
func (p ProfileRepository) Save(profile domain.Profile) error {
	bytes, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return p.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(profileKey(profile.ID), bytes); err != nil {
			return err
		}
		return txn.Set(memberKey(profile.OrganizationID, profile.ID), []byte(profile.ID))
	})
}

func (p ProfileRepository) Profile(userID string) (domain.Profile, error) {
	var profile domain.Profile
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &profile)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Profile{}, fmt.Errorf("%w: %s", errors.ErrProfileNotFound, userID)
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// Members lists every resolvable profile of the organization, sorted
// by name then id. A membership entry whose profile has vanished is
// skipped, not an error.
func (p ProfileRepository) Members(organizationID string) ([]domain.Profile, error) {
	prefix := []byte(fmt.Sprintf("member:%s:", organizationID))

	var ids []string
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				ids = append(ids, string(value))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var members []domain.Profile
	for _, id := range ids {
		profile, err := p.Profile(id)
		if err != nil {
			p.log.Warn("Membership entry without profile", "user_id", id, "organization_id", organizationID)
			continue
		}
		members = append(members, profile)
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return members[i].ID < members[j].ID
	})
	return members, nil
}
