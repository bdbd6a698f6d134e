package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

// ==================== Admin User Handlers ====================

// AdminListUsers lists all users
func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	infos := make([]*models.UserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, toUserInfo(user))
	}
	c.JSON(http.StatusOK, gin.H{"users": infos})
}

// AdminAdjustCredits sets a user's balance through the ledger
func (h *Handler) AdminAdjustCredits(c *gin.Context) {
	adminID, _ := requesterIdentity(c)

	var req models.AdjustCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.adminService.AdjustCredits(c.Request.Context(), adminID, c.Param("id"), req.Credits, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": toTransactionInfo(entry)})
}

// AdminSetRole changes a user's role
func (h *Handler) AdminSetRole(c *gin.Context) {
	adminID, _ := requesterIdentity(c)

	var req models.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.adminService.SetRole(c.Request.Context(), adminID, c.Param("id"), req.Role); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ==================== Admin Node Handlers ====================

// AdminCreateNode registers a node
func (h *Handler) AdminCreateNode(c *gin.Context) {
	adminID, _ := requesterIdentity(c)

	var req models.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.adminService.CreateNode(c.Request.Context(), adminID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toNodeInfo(node, true))
}

// AdminGetNode returns one node with connection details
func (h *Handler) AdminGetNode(c *gin.Context) {
	node, err := h.adminService.GetNode(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toNodeInfo(node, true))
}

// AdminUpdateNode applies a partial node update
func (h *Handler) AdminUpdateNode(c *gin.Context) {
	adminID, _ := requesterIdentity(c)

	var req models.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.adminService.UpdateNode(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toNodeInfo(node, true))
}

// AdminDeleteNode removes an empty node
func (h *Handler) AdminDeleteNode(c *gin.Context) {
	adminID, _ := requesterIdentity(c)

	if err := h.adminService.DeleteNode(c.Request.Context(), adminID, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ==================== Admin Package Handlers ====================

// AdminCreatePackage creates a package
func (h *Handler) AdminCreatePackage(c *gin.Context) {
	adminID, _ := requesterIdentity(c)

	var req models.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.adminService.CreatePackage(c.Request.Context(), adminID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// AdminUpdatePackage applies a partial package update
func (h *Handler) AdminUpdatePackage(c *gin.Context) {
	adminID, _ := requesterIdentity(c)

	var req models.UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.adminService.UpdatePackage(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// AdminDeletePackage removes a package
func (h *Handler) AdminDeletePackage(c *gin.Context) {
	adminID, _ := requesterIdentity(c)

	if err := h.adminService.DeletePackage(c.Request.Context(), adminID, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ==================== Admin Observability Handlers ====================

// AdminListActivity lists recent activity across all users
func (h *Handler) AdminListActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.activity.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": entries})
}

// AdminStats returns the system overview
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.statsService.System(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
