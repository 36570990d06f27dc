// Copyright Precisionmatics Inc., 2026. All rights reserved.

package search

import "strings"

// RCSB search API query document structures.
// See https://search.rcsb.org/#search-api for the schema.

type searchRequest struct {
	Query          queryNode      `json:"query"`
	ReturnType     string         `json:"return_type"`
	RequestOptions requestOptions `json:"request_options"`
}

type requestOptions struct {
	ReturnAllHits bool `json:"return_all_hits"`
}

// queryNode is either a terminal node (Service/Parameters set) or a
// group node (LogicalOperator/Nodes set).
type queryNode struct {
	Type            string          `json:"type"`
	Service         string          `json:"service,omitempty"`
	Parameters      *queryParams    `json:"parameters,omitempty"`
	LogicalOperator string          `json:"logical_operator,omitempty"`
	Nodes           []queryNode     `json:"nodes,omitempty"`
}

type queryParams struct {
	Attribute string `json:"attribute,omitempty"`
	Operator  string `json:"operator,omitempty"`
	Value     string `json:"value"`
}

// Attribute paths used by the precise query.
const (
	attrTitle       = "struct.title"
	attrDescription = "rcsb_polymer_entity.pdbx_description"
	attrGeneName    = "rcsb_entity_source_organism.gene.rcsb_gene_name.value"
)

// preciseRequest builds the three-pronged precise query: title phrase,
// description words, and uppercased gene name words, OR-ed together.
func preciseRequest(query string) searchRequest {
	return searchRequest{
		Query: queryNode{
			Type:            "group",
			LogicalOperator: "or",
			Nodes: []queryNode{
				textNode(attrTitle, "contains_phrase", query),
				textNode(attrDescription, "contains_words", query),
				textNode(attrGeneName, "contains_words", strings.ToUpper(query)),
			},
		},
		ReturnType:     "entry",
		RequestOptions: requestOptions{ReturnAllHits: true},
	}
}

// fullTextRequest builds the fallback query over all indexed text.
func fullTextRequest(query string) searchRequest {
	return searchRequest{
		Query: queryNode{
			Type:       "terminal",
			Service:    "full_text",
			Parameters: &queryParams{Value: query},
		},
		ReturnType:     "entry",
		RequestOptions: requestOptions{ReturnAllHits: true},
	}
}

func textNode(attribute, operator, value string) queryNode {
	return queryNode{
		Type:    "terminal",
		Service: "text",
		Parameters: &queryParams{
			Attribute: attribute,
			Operator:  operator,
			Value:     value,
		},
	}
}

// RCSB search API response structures.
type searchResponse struct {
	ResultSet []searchHit `json:"result_set"`
}

type searchHit struct {
	Identifier string `json:"identifier"`
}
