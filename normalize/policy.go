package normalize

import "policynav-backend/models"

// PolicyMatch is the outcome of FindPolicy.
type PolicyMatch struct {
	// Object is the matched policy object, or the document-loader artifact
	// the record was extracted from.
	Object Value
	Record *models.PolicyRecord
	// FromText is set when Record came from the Text Field Extractor.
	FromText bool
	// LooseMatch is set when Object matched only through its session_id.
	// Such an object may be an unrelated wrapper rather than a policy.
	LooseMatch bool
}

// IsPolicyObject reports whether v looks like a policy record: an object with
// a truthy policy_name or session_id.
func IsPolicyObject(v Value) bool {
	if !v.IsObject() {
		return false
	}
	if name, ok := v.Get("policy_name"); ok && name.Truthy() {
		return true
	}
	sid, ok := v.Get(SessionIDKey)
	return ok && sid.Truthy()
}

// IsLoaderArtifact reports whether v is a raw document-loader artifact: a
// free-text pageContent body next to a metadata member.
func IsLoaderArtifact(v Value) bool {
	if !v.IsObject() {
		return false
	}
	content, ok := v.Get("pageContent")
	if !ok || !content.IsString() || !content.Truthy() {
		return false
	}
	meta, ok := v.Get("metadata")
	return ok && meta.Truthy()
}

// HasPolicy reports whether FindPolicy would succeed on v. It is the natural
// Accept for decoding upload responses.
func HasPolicy(v Value) bool {
	_, ok := FindPolicy(v)
	return ok
}

// FindPolicy searches v depth-first for a policy object. A matching object is
// returned unchanged. A document-loader artifact met on the way ends the
// search: its pageContent is run through ExtractPolicyFromText and the
// session id is taken from the artifact, or else from anywhere in v.
func FindPolicy(v Value) (PolicyMatch, bool) {
	var match PolicyMatch
	found := Walk(v, func(n Value) Action {
		if !n.IsObject() {
			return Continue
		}
		if IsPolicyObject(n) {
			match = PolicyMatch{Object: n, Record: PolicyFromValue(n)}
			if name, ok := n.Get("policy_name"); !ok || !name.Truthy() {
				match.LooseMatch = true
			}
			return Stop
		}
		if IsLoaderArtifact(n) {
			content, _ := n.Get("pageContent")
			text, _ := content.Str()
			record := ExtractPolicyFromText(text)
			sid, ok := FindSessionID(n)
			if !ok {
				sid, ok = FindSessionID(v)
			}
			if ok {
				record.SessionID = &sid
			}
			match = PolicyMatch{Object: n, Record: record, FromText: true}
			return Stop
		}
		return Continue
	})
	return match, found
}
