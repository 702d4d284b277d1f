package wfm

import (
	"context"
	"net/url"
)

// Item is one tradable item from the full market index.
type Item struct {
	ID       string `json:"id"`
	URLName  string `json:"url_name"`
	ItemName string `json:"item_name"`
}

// Items fetches the full tradable item index.
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	var out struct {
		Payload struct {
			Items []Item `json:"items"`
		} `json:"payload"`
	}
	if err := c.getJSON(ctx, "/items", &out); err != nil {
		return nil, err
	}
	return out.Payload.Items, nil
}

// SetComponent is one member of an item's set listing. The set itself
// appears with SetRoot true; the others are its parts.
type SetComponent struct {
	ID             string `json:"id"`
	URLName        string `json:"url_name"`
	QuantityForSet int    `json:"quantity_for_set"` // 0 means 1, the API omits it for singles
	SetRoot        bool   `json:"set_root"`
	En             struct {
		ItemName string `json:"item_name"`
	} `json:"en"`
}

// ItemDetail is the expanded record for one item, including set composition.
type ItemDetail struct {
	ID         string         `json:"id"`
	ItemsInSet []SetComponent `json:"items_in_set"`
}

// ItemDetail fetches the expanded record for one item.
func (c *Client) ItemDetail(ctx context.Context, urlName string) (ItemDetail, error) {
	var out struct {
		Payload struct {
			Item ItemDetail `json:"item"`
		} `json:"payload"`
	}
	if err := c.getJSON(ctx, "/items/"+url.PathEscape(urlName), &out); err != nil {
		return ItemDetail{}, err
	}
	return out.Payload.Item, nil
}
