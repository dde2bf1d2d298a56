package services

import (
	"log/slog"
	"sort"

	"secure-dm/domain"
	"secure-dm/repositories"

	"github.com/samber/lo"
)

// IDecrypter is the slice of the cipher the aggregator needs.
type IDecrypter interface {
	DecryptBatch(ciphertexts []string) []string
}

// ConversationService derives, per viewing user, the list of
// distinct correspondents with preview, timestamp, and unread count.
// Recomputed on demand; owns no persisted state.
type ConversationService struct {
	log       *slog.Logger
	messages  repositories.IMessageRepository
	directory domain.Directory
	decrypter IDecrypter
}

func NewConversationService(log *slog.Logger, messages repositories.IMessageRepository,
	directory domain.Directory, decrypter IDecrypter) *ConversationService {
	return &ConversationService{
		log:       log,
		messages:  messages,
		directory: directory,
		decrypter: decrypter,
	}
}

type partition struct {
	newest domain.Message
	unread int
}

// List builds the viewer's conversation list:
//
//  1. every message involving the viewer, newest first
//  2. partitioned by partner; the first message seen per partner is
//     the preview
//  3. all previews decrypted in one batch call, never one per partner
//  4. unread counted per partition
//  5. partners without a resolvable profile dropped
//  6. sorted by preview time descending, then organization members
//     without any conversation appended as empty trailing entries
func (s *ConversationService) List(viewerID string) ([]domain.ConversationPreview, error) {
	viewer, err := s.directory.Profile(viewerID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.ForParticipant(viewerID)
	if err != nil {
		return nil, err
	}

	var order []string
	partitions := make(map[string]*partition)
	for _, message := range messages {
		partnerID := message.Partner(viewerID)
		part, ok := partitions[partnerID]
		if !ok {
			part = &partition{newest: message}
			partitions[partnerID] = part
			order = append(order, partnerID)
		}
		if message.Unread(viewerID) {
			part.unread++
		}
	}

	// One batch across all partners; the N+1 shape is the whole
	// reason DecryptBatch exists.
	var previews []string
	if len(order) > 0 {
		ciphertexts := lo.Map(order, func(partnerID string, _ int) string {
			return partitions[partnerID].newest.Content
		})
		previews = s.decrypter.DecryptBatch(ciphertexts)
	}

	var conversations []domain.ConversationPreview
	for i, partnerID := range order {
		profile, err := s.directory.Profile(partnerID)
		if err != nil {
			// Directory and message data can be transiently
			// inconsistent; a partner without a profile is dropped.
			s.log.Warn("Dropping conversation with unresolvable partner",
				"viewer_id", viewerID, "partner_id", partnerID)
			continue
		}
		part := partitions[partnerID]
		conversations = append(conversations, domain.ConversationPreview{
			PartnerID:     partnerID,
			PartnerName:   profile.Name,
			Preview:       previews[i],
			LastMessageAt: part.newest.CreatedAt,
			Unread:        part.unread,
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})

	members, err := s.directory.Members(viewer.OrganizationID)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		if member.ID == viewerID {
			continue
		}
		if _, ok := partitions[member.ID]; ok {
			continue
		}
		conversations = append(conversations, domain.ConversationPreview{
			PartnerID:   member.ID,
			PartnerName: member.Name,
		})
	}

	return conversations, nil
}
