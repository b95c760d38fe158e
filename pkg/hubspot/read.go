package hubspot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
)

// maxBatchSize is the upstream ceiling on ids per batch read request.
const maxBatchSize = 50

// SearchDeals runs a full-text deal search with the requested property
// projection and result limit.
func (c *httpClient) SearchDeals(ctx context.Context, req SearchRequest) ([]Object, error) {
	var resp searchResponse
	if err := c.post(ctx, "/crm/v3/objects/deals/search", req, &resp); err != nil {
		return nil, eris.Wrap(err, "hubspot: search deals")
	}
	return resp.Results, nil
}

// Associations lists the ids of records of toType associated with the given
// object, e.g. ("deals", dealID, "contacts").
func (c *httpClient) Associations(ctx context.Context, fromType, objectID, toType string) ([]string, error) {
	path := fmt.Sprintf("/crm/v4/objects/%s/%s/associations/%s?limit=100", fromType, objectID, toType)

	var resp associationsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: associations %s/%s -> %s", fromType, objectID, toType))
	}

	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, strconv.FormatInt(r.ToObjectID, 10))
	}
	return ids, nil
}

// BatchRead fetches records of objectType by id list, chunked to the
// upstream batch ceiling. Empty ids short-circuits without a network call.
// Any chunk failure fails the whole call; callers needing partial results
// catch at their call site.
func (c *httpClient) BatchRead(ctx context.Context, objectType string, ids []string, properties []string) ([]Object, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var results []Object
	for start := 0; start < len(ids); start += maxBatchSize {
		end := min(start+maxBatchSize, len(ids))

		req := batchReadRequest{Properties: properties}
		for _, id := range ids[start:end] {
			req.Inputs = append(req.Inputs, batchReadInput{ID: id})
		}

		var resp batchReadResponse
		path := fmt.Sprintf("/crm/v3/objects/%s/batch/read", objectType)
		if err := c.post(ctx, path, req, &resp); err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("hubspot: batch read %s", objectType))
		}
		results = append(results, resp.Results...)
	}

	return results, nil
}

// Owner fetches a single owner record by id.
func (c *httpClient) Owner(ctx context.Context, ownerID string) (*Owner, error) {
	var owner Owner
	if err := c.get(ctx, "/crm/v3/owners/"+ownerID, &owner); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("hubspot: get owner %s", ownerID))
	}
	return &owner, nil
}
