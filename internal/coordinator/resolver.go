package coordinator

import types "github.com/yungbote/signage-backend/internal/domain/signage"

// Resolve returns the section of every assignment that references
// (contentID, contentType), in assignment order. A section referenced by two
// assignments appears twice, so callers emit one notification per reference.
func Resolve(assignments []types.Assignment, contentID string, contentType types.ContentType) []types.SectionKey {
	var out []types.SectionKey
	for _, a := range assignments {
		if a.ContentID == contentID && a.ContentType == contentType {
			out = append(out, a.SectionKey)
		}
	}
	return out
}

func withoutReferences(assignments []types.Assignment, contentID string, contentType types.ContentType) []types.Assignment {
	out := make([]types.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.ContentID == contentID && a.ContentType == contentType {
			continue
		}
		out = append(out, a)
	}
	return out
}
