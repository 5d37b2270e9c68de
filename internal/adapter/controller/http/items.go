package httpctrl

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/v01dsy/azurewrath/internal/domain/items"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
)

// ItemsController serves the read-only price history API consumed by the
// web app. All lookups accept the internal id or the Roblox asset id.
type ItemsController struct {
	Q prices.QueryRepo
}

func NewItemsController(q prices.QueryRepo) *ItemsController { return &ItemsController{Q: q} }

func (c *ItemsController) Register(r *gin.Engine) {
	r.GET("/items", c.list)
	r.GET("/items/:id", c.get)
	r.GET("/items/:id/history", c.history)
	r.GET("/items/:id/sales", c.sales)
}

type itemResp struct {
	ID           string     `json:"id"`
	AssetID      string     `json:"assetId"`
	Name         string     `json:"name"`
	CurrentPrice *float64   `json:"currentPrice"`
	CurrentRap   *float64   `json:"currentRap"`
	LowestResale *float64   `json:"lowestResale"`
	LastUpdated  *time.Time `json:"lastUpdated"`
}

type snapshotResp struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"itemId"`
	Price        *float64  `json:"price"`
	Rap          *float64  `json:"rap"`
	LowestResale *float64  `json:"lowestResale"`
	SalesVolume  *float64  `json:"salesVolume"`
	Timestamp    time.Time `json:"timestamp"`
}

type saleResp struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"itemId"`
	SalePrice      float64   `json:"salePrice"`
	SellerUsername *string   `json:"sellerUsername"`
	BuyerUsername  *string   `json:"buyerUsername"`
	SerialNumber   *int64    `json:"serialNumber"`
	SaleDate       time.Time `json:"saleDate"`
}

func (c *ItemsController) list(ctx *gin.Context) {
	out, err := c.Q.ListItems(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := make([]itemResp, 0, len(out))
	for _, d := range out {
		resp = append(resp, toItemResp(d))
	}
	ctx.JSON(http.StatusOK, resp)
}

func (c *ItemsController) get(ctx *gin.Context) {
	d, err := c.Q.GetItem(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		abortRepoErr(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, toItemResp(d))
}

// maxHistoryLimit bounds a single history query; the worker writes at most
// one snapshot per item per cycle, so 1000 rows cover weeks of history.
const maxHistoryLimit = 1000

func (c *ItemsController) history(ctx *gin.Context) {
	limit := 100
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	out, err := c.Q.History(ctx.Request.Context(), ctx.Param("id"), limit)
	if err != nil {
		abortRepoErr(ctx, err)
		return
	}
	resp := make([]snapshotResp, 0, len(out))
	for _, s := range out {
		resp = append(resp, snapshotResp(s))
	}
	ctx.JSON(http.StatusOK, resp)
}

func (c *ItemsController) sales(ctx *gin.Context) {
	out, err := c.Q.Sales(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		abortRepoErr(ctx, err)
		return
	}
	resp := make([]saleResp, 0, len(out))
	for _, s := range out {
		resp = append(resp, saleResp(s))
	}
	ctx.JSON(http.StatusOK, resp)
}

func toItemResp(d prices.ItemDetail) itemResp {
	return itemResp{
		ID:           d.ID,
		AssetID:      d.AssetID,
		Name:         d.Name,
		CurrentPrice: d.Price,
		CurrentRap:   d.Rap,
		LowestResale: d.LowestResale,
		LastUpdated:  d.LastUpdated,
	}
}

func abortRepoErr(ctx *gin.Context, err error) {
	if errors.Is(err, items.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
