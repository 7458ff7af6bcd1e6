package services

import (
	"context"
	"strings"

	"github.com/sonvt1710/graylog2-server/internal/shares"
	"github.com/sonvt1710/graylog2-server/pkg/grn"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normaliseIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// granteeTypeOf maps a principal GRN onto the grantee type shown to sharing users.
func granteeTypeOf(value string) shares.GranteeType {
	parsed, err := grn.Parse(value)
	if err != nil {
		return shares.GranteeTypeError
	}
	switch parsed.Type {
	case grn.TypeUser:
		return shares.GranteeTypeUser
	case grn.TypeTeam:
		return shares.GranteeTypeTeam
	case grn.TypeBuiltinTeam:
		return shares.GranteeTypeGlobal
	default:
		return shares.GranteeTypeError
	}
}

func paginate(page, perPage, maxPerPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > maxPerPage {
		perPage = 50
	}
	return page, perPage
}
