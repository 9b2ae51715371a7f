package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/the2dl/friendly-ad/internal/config"
	"github.com/the2dl/friendly-ad/internal/crypto"
	"github.com/the2dl/friendly-ad/internal/models"
	"github.com/the2dl/friendly-ad/internal/prometheus"
	"github.com/the2dl/friendly-ad/internal/store"
)

// Service is the directory query engine: it compiles a search into a
// filter, brokers a connection, pages the search to exhaustion and
// normalizes the raw entries into User/Group records in directory order.
type Service struct {
	broker        *Broker
	logger        *logrus.Logger
	searchTimeout time.Duration
	pageSize      uint32
	maxPages      int
}

// NewService wires the query engine from the registry, cipher and config.
func NewService(st *store.Store, cipher *crypto.Cipher, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		broker:        NewBroker(st, cipher, logger, cfg.ConnTimeout),
		logger:        logger,
		searchTimeout: cfg.SearchTimeout,
		pageSize:      cfg.PageSize,
		maxPages:      cfg.MaxPages,
	}
}

// Search runs one directory search end to end. An unknown search type
// yields an empty result, not an error. Truncated results carry the
// partial records; error results carry none.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) (result *models.SearchResult, err error) {
	start := time.Now()
	defer func() {
		prometheus.RecordSearch(q.Type, start, searchStatus(result, err))
	}()

	filter, attributes, ok := BuildFilter(q)
	if !ok {
		s.logger.WithField("type", q.Type).Debug("Unknown search type, returning empty result")
		return &models.SearchResult{Users: []*models.User{}}, nil
	}
	if !balancedFilter(filter) {
		return nil, fmt.Errorf("%w: malformed filter %q", ErrSearchFailed, filter)
	}

	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	conn, baseDN, err := s.broker.Connect(ctx, q.DomainID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	entries, truncated, err := searchAllPages(conn, baseDN, filter, attributes, s.pageSize, s.maxPages)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"type":      q.Type,
		"entries":   len(entries),
		"truncated": truncated,
	}).Debug("Search completed")

	result = &models.SearchResult{Truncated: truncated}
	switch q.Type {
	case models.SearchTypeGroups:
		result.Groups = make([]*models.Group, 0, len(entries))
		for _, entry := range entries {
			if group := EntryToGroup(entry); group != nil {
				result.Groups = append(result.Groups, group)
			} else {
				s.logger.WithField("dn", entry.DN).Debug("Dropping group entry without name")
			}
		}
	default: // users, group_members
		result.Users = make([]*models.User, 0, len(entries))
		for _, entry := range entries {
			if user := EntryToUser(entry); user != nil {
				result.Users = append(result.Users, user)
			} else {
				s.logger.WithField("dn", entry.DN).Debug("Dropping user entry without name")
			}
		}
	}

	return result, nil
}

// GroupByDN looks up a single group by its distinguished name.
func (s *Service) GroupByDN(ctx context.Context, dn string, domainID *int64) (*models.Group, error) {
	filter := groupFilter(dn)
	if !balancedFilter(filter) {
		return nil, fmt.Errorf("%w: malformed filter %q", ErrSearchFailed, filter)
	}

	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	conn, baseDN, err := s.broker.Connect(ctx, domainID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	entries, _, err := searchAllPages(conn, baseDN, filter, groupAttributes, s.pageSize, s.maxPages)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if group := EntryToGroup(entry); group != nil {
			return group, nil
		}
	}
	return nil, ErrGroupNotFound
}

func searchStatus(result *models.SearchResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case result != nil && result.Truncated:
		return "truncated"
	default:
		return "success"
	}
}
