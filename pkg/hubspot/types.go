package hubspot

// Object is a generic CRM record: an id plus the requested property set.
// Property values come back as strings regardless of their CRM type.
type Object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// Prop returns a property value, or "" if absent.
func (o Object) Prop(name string) string {
	return o.Properties[name]
}

// SearchRequest is the body for POST /crm/v3/objects/deals/search.
type SearchRequest struct {
	Query      string   `json:"query,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// searchResponse is the response from the search endpoint.
type searchResponse struct {
	Total   int      `json:"total"`
	Results []Object `json:"results"`
}

// associationsResponse is the response from the v4 associations endpoint.
type associationsResponse struct {
	Results []struct {
		ToObjectID int64 `json:"toObjectId"`
	} `json:"results"`
}

// batchReadRequest is the body for POST /crm/v3/objects/{type}/batch/read.
type batchReadRequest struct {
	Properties []string         `json:"properties,omitempty"`
	Inputs     []batchReadInput `json:"inputs"`
}

type batchReadInput struct {
	ID string `json:"id"`
}

// batchReadResponse is the response from the batch read endpoint.
type batchReadResponse struct {
	Results []Object `json:"results"`
}

// Owner is a CRM user who owns a deal.
type Owner struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// FullName returns the owner's display name, falling back to email.
func (o Owner) FullName() string {
	switch {
	case o.FirstName != "" && o.LastName != "":
		return o.FirstName + " " + o.LastName
	case o.FirstName != "":
		return o.FirstName
	case o.LastName != "":
		return o.LastName
	default:
		return o.Email
	}
}

// TokenResponse is the response from the OAuth token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
