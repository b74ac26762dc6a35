package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/casedock/casedock-api/api"
	"github.com/casedock/casedock-api/chambers"
	"github.com/casedock/casedock-api/config"
	"github.com/casedock/casedock-api/models"
)

// Chamber exported for testing purposes
type Chamber struct {
	Service *chambers.Service
}

type chamberResponse struct {
	Message string      `json:"message"`
	Chamber interface{} `json:"chamber"`
}

type chambersResponse struct {
	Message  string      `json:"message"`
	Chambers interface{} `json:"chambers"`
}

type joinRequestResponse struct {
	Message string      `json:"message"`
	Request interface{} `json:"request,omitempty"`
}

type joinRequestsResponse struct {
	Message  string                   `json:"message"`
	Requests []models.JoinRequestView `json:"requests"`
}

type membersResponse struct {
	Message string              `json:"message"`
	Members []models.MemberView `json:"members"`
}

type memberResponse struct {
	Message string             `json:"message"`
	Member  *models.MemberView `json:"member"`
}

// CreateChamberHandler creates a chamber owned by the caller
func (c Chamber) CreateChamberHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := c.Service.Create(ctx, user.ID, body.Name, body.Description)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, chamberResponse{Message: "Chamber created successfully", Chamber: created})
}

// ListChambersHandler returns the chambers the caller belongs to
func (c Chamber) ListChambersHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	list, err := c.Service.List(ctx, user.ID)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, chambersResponse{Message: "Chambers fetched successfully", Chambers: list})
}

// SearchChambersHandler finds chambers by name that the caller could join
func (c Chamber) SearchChambersHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	found, err := c.Service.Search(ctx, user.ID, r.URL.Query().Get("q"))
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, chambersResponse{Message: "Chambers fetched successfully", Chambers: found})
}

// ChamberHandler returns one chamber with the caller's standing in it
func (c Chamber) ChamberHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	detail, err := c.Service.Get(ctx, user.ID, id)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, chamberResponse{Message: "Chamber fetched successfully", Chamber: detail})
}

// UpdateChamberHandler renames a chamber or changes its description
func (c Chamber) UpdateChamberHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	var patch chambers.Patch
	if err := decodeJSON(r, &patch); err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Service.Update(ctx, user.ID, id, patch)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, chamberResponse{Message: "Chamber updated successfully", Chamber: updated})
}

// DeleteChamberHandler deletes a chamber with its memberships and requests
func (c Chamber) DeleteChamberHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Service.Delete(ctx, user.ID, id); err != nil {
		config.ErrorResponse(w, err)
		return
	}
	message(w, http.StatusOK, "Chamber deleted successfully")
}

// JoinChamberHandler files a join request
func (c Chamber) JoinChamberHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &body); err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := c.Service.RequestJoin(ctx, user.ID, id, body.Message)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, joinRequestResponse{Message: "Join request sent successfully", Request: req})
}

// JoinRequestsHandler lists the pending join requests of a chamber
func (c Chamber) JoinRequestsHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pending, err := c.Service.PendingRequests(ctx, user.ID, id)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, joinRequestsResponse{Message: "Join requests fetched successfully", Requests: pending})
}

// ResolveJoinRequestHandler approves or rejects a pending join request
func (c Chamber) ResolveJoinRequestHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	requestID, err := objectIDVar(r, "requestId", "request ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	var body struct {
		Action      string                   `json:"action"`
		Permissions *models.PermissionsPatch `json:"permissions"`
	}
	if err := decodeJSON(r, &body); err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	resolved, err := c.Service.ResolveRequest(ctx, user.ID, id, requestID, body.Action, body.Permissions)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	action := strings.ToLower(strings.TrimSpace(body.Action))
	api.WriteJSON(w, http.StatusOK, joinRequestResponse{
		Message: fmt.Sprintf("Join request %sd successfully", action),
		Request: resolved,
	})
}

// MembersHandler lists the members of a chamber
func (c Chamber) MembersHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	members, err := c.Service.ListMembers(ctx, user.ID, id)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, membersResponse{Message: "Members fetched successfully", Members: members})
}

// UpdateMemberPermissionsHandler changes the permission bits of a member
func (c Chamber) UpdateMemberPermissionsHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	memberID, err := objectIDVar(r, "memberId", "member ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	var body struct {
		Permissions *models.PermissionsPatch `json:"permissions"`
	}
	if err := decodeJSON(r, &body); err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := c.Service.UpdatePermissions(ctx, user.ID, id, memberID, body.Permissions)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, memberResponse{Message: "Permissions updated successfully", Member: member})
}

// RemoveMemberHandler removes a member from a chamber
func (c Chamber) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	memberID, err := objectIDVar(r, "memberId", "member ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Service.RemoveMember(ctx, user.ID, id, memberID); err != nil {
		config.ErrorResponse(w, err)
		return
	}
	message(w, http.StatusOK, "Member removed successfully")
}

// LeaveChamberHandler removes the caller's own membership
func (c Chamber) LeaveChamberHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "id", "chamber ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Service.Leave(ctx, user.ID, id); err != nil {
		config.ErrorResponse(w, err)
		return
	}
	message(w, http.StatusOK, "Left chamber successfully")
}

