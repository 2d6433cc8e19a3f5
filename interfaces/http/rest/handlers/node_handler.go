package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"arbor/application/commands"
	"arbor/application/commands/bus"
	"arbor/application/queries"
	querybus "arbor/application/queries/bus"
	pkgerrors "arbor/pkg/errors"
	"arbor/pkg/utils"
)

// NodeHandler handles hierarchy HTTP requests
type NodeHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=50"`
	ParentID *string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateNodeRequest represents the request body for updating a node.
// ParentID stays raw so an absent field (keep the parent) can be told
// apart from an explicit null (move to the root level).
type UpdateNodeRequest struct {
	Name     string          `json:"name" validate:"required,min=1,max=50"`
	ParentID json.RawMessage `json:"parent_id,omitempty"`
}

// MoveNodeRequest represents the request body for re-parenting a node.
// A null parent moves the node to the root level.
type MoveNodeRequest struct {
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}

// CreateNodeResponse represents the response for creating a node
type CreateNodeResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// Mint the id here so the response can carry it
	nodeID := uuid.New().String()

	cmd := commands.CreateNodeCommand{
		NodeID:   nodeID,
		Name:     req.Name,
		ParentID: req.ParentID,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to create node", zap.Error(err))
		h.respondAppError(w, err, "Failed to create node")
		return
	}

	h.respondJSON(w, http.StatusCreated, CreateNodeResponse{
		ID:        nodeID,
		Message:   "Node created successfully",
		CreatedAt: utils.NowRFC3339(),
	})
}

// GetNode handles GET /nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := h.nodeIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetNodeQuery{NodeID: nodeID})
	if err != nil {
		h.logger.Error("Failed to get node",
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		h.respondAppError(w, err, "Failed to retrieve node")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// UpdateNode handles PUT /nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := h.nodeIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cmd := commands.UpdateNodeCommand{
		NodeID: nodeID,
		Name:   req.Name,
	}
	if len(req.ParentID) > 0 {
		cmd.ChangeParent = true
		if string(req.ParentID) != "null" {
			var parentID string
			if err := json.Unmarshal(req.ParentID, &parentID); err != nil {
				h.respondError(w, http.StatusBadRequest, "Invalid parent ID: must be a string or null")
				return
			}
			if _, err := uuid.Parse(parentID); err != nil {
				h.respondError(w, http.StatusBadRequest, "Invalid parent ID format")
				return
			}
			cmd.NewParentID = &parentID
		}
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to update node",
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		h.respondAppError(w, err, "Failed to update node")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"id":      nodeID,
		"message": "Node updated successfully",
	})
}

// MoveNode handles PUT /nodes/{nodeID}/parent
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := h.nodeIDParam(w, r)
	if !ok {
		return
	}

	var req MoveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cmd := commands.MoveNodeCommand{
		NodeID:      nodeID,
		NewParentID: req.ParentID,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to move node",
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		h.respondAppError(w, err, "Failed to move node")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"id":      nodeID,
		"message": "Node moved successfully",
	})
}

// DeleteNode handles DELETE /nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := h.nodeIDParam(w, r)
	if !ok {
		return
	}

	cmd := commands.DeleteNodeCommand{NodeID: nodeID}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to delete node",
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		h.respondAppError(w, err, "Failed to delete node")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"id":      nodeID,
		"message": "Node and its subtree deleted",
	})
}

// ListRoots handles GET /roots
func (h *NodeHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListRootsQuery{})
	if err != nil {
		h.logger.Error("Failed to list roots", zap.Error(err))
		h.respondAppError(w, err, "Failed to list roots")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ExportTree handles GET /export
func (h *NodeHandler) ExportTree(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ExportTreeQuery{})
	if err != nil {
		h.logger.Error("Failed to export tree", zap.Error(err))
		h.respondAppError(w, err, "Failed to export tree")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// nodeIDParam extracts and validates the nodeID path parameter
func (h *NodeHandler) nodeIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		h.respondError(w, http.StatusBadRequest, "Node ID is required")
		return "", false
	}
	if _, err := uuid.Parse(nodeID); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid node ID format")
		return "", false
	}
	return nodeID, true
}

// respondAppError maps a typed application error onto its HTTP status,
// falling back to the given message for everything else
func (h *NodeHandler) respondAppError(w http.ResponseWriter, err error, fallback string) {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		h.respondError(w, appErr.HTTPStatus, appErr.Message)
		return
	}
	if strings.Contains(err.Error(), "validation") {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondError(w, http.StatusInternalServerError, fallback)
}

func (h *NodeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *NodeHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
