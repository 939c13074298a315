package graphql

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/graphql-go/graphql"
)

// maxRequestBody bounds a GraphQL request; graphs arrive inline
const maxRequestBody = 8 << 20

// GraphQLRequest represents a GraphQL HTTP request
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLHandler handles GraphQL HTTP requests
type GraphQLHandler struct {
	schema   graphql.Schema
	maxDepth int
	logger   logging.Logger
}

// NewGraphQLHandler creates a new GraphQL HTTP handler. maxDepth <= 0
// means DefaultMaxDepth.
func NewGraphQLHandler(schema graphql.Schema, maxDepth int, logger logging.Logger) *GraphQLHandler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GraphQLHandler{
		schema:   schema,
		maxDepth: maxDepth,
		logger:   logger.With(logging.Component("graphql")),
	}
}

// ServeHTTP runs one POSTed query. Query errors are reported in the
// response body with status 200, as GraphQL clients expect.
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeResponse(w, errorResponse("query is required"))
		return
	}

	if err := ValidateQueryDepth(req.Query, h.maxDepth); err != nil {
		writeResponse(w, errorResponse(err.Error()))
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	response := GraphQLResponse{Data: result.Data}
	if result.HasErrors() {
		response.Errors = make([]GraphQLError, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = GraphQLError{Message: err.Message}
		}
		h.logger.Debug("query returned errors",
			logging.Int("errors", len(result.Errors)),
			logging.String("operation", req.OperationName))
	}

	writeResponse(w, response)
}

func errorResponse(msg string) GraphQLResponse {
	return GraphQLResponse{Errors: []GraphQLError{{Message: msg}}}
}

func writeResponse(w http.ResponseWriter, response GraphQLResponse) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
