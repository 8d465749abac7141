package service

import (
	"context"
	"fmt"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

// summaries resolves display fields for ids with a single batched lookup.
// Accounts that no longer exist resolve to a summary carrying only the ID.
func summaries(ctx context.Context, accounts ports.AccountRepository, ids []string) (map[string]domain.AccountSummary, error) {
	out := make(map[string]domain.AccountSummary, len(ids))
	unique := dedupe(ids)
	if len(unique) == 0 {
		return out, nil
	}

	found, err := accounts.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("resolve accounts: %w", err)
	}
	for _, a := range found {
		out[a.ID] = a.Summary()
	}
	for _, id := range unique {
		if _, ok := out[id]; !ok {
			out[id] = domain.AccountSummary{ID: id}
		}
	}
	return out, nil
}

// summaryList resolves ids preserving their order.
func summaryList(ctx context.Context, accounts ports.AccountRepository, ids []string) ([]domain.AccountSummary, error) {
	byID, err := summaries(ctx, accounts, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AccountSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
