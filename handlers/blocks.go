package handlers

import (
	"net/http"

	"clinicore/middleware"
	"clinicore/services/scheduling"

	"github.com/gin-gonic/gin"
)

// CreateBlock stores a (possibly recurring) unavailability period and
// reports any appointments now covered by it.
func CreateBlock(c *gin.Context) {
	var req scheduling.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, err := Blocks.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListBlocks returns a doctor's blocks in a range.
func ListBlocks(c *gin.Context) {
	from, to, ok := parseRangeQuery(c)
	if !ok {
		return
	}
	blocks, err := Blocks.List(c.Request.Context(), c.Param("doctorId"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

// DeleteBlock removes one occurrence.
func DeleteBlock(c *gin.Context) {
	if err := Blocks.Delete(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// DeleteBlockSeries removes every future occurrence of a recurring block.
func DeleteBlockSeries(c *gin.Context) {
	deleted, err := Blocks.DeleteSeries(c.Request.Context(), middleware.GetActor(c), c.Param("recurrenceId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
