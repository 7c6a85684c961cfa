package remote

import (
	"context"
	"fmt"
)

const steamSearchURL = "https://store.steampowered.com/api/storesearch/"

type steamSearchResponse struct {
	Items []struct {
		ID int `json:"id"`
	} `json:"items"`
}

// SteamCoverURL looks a game up in the Steam store and returns its
// header image URL. Talks to Steam directly; no host or token
// involved.
func (c *Client) SteamCoverURL(ctx context.Context, game string) (string, error) {
	var body steamSearchResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"term": game,
			"l":    "english",
			"cc":   "US",
		}).
		SetSuccessResult(&body).
		Get(steamSearchURL)

	if err := checkResponse(resp, err, "steam cover lookup"); err != nil {
		return "", err
	}

	if len(body.Items) == 0 {
		return "", fmt.Errorf("%w: steam cover for %s", ErrRemoteNotFound, game)
	}

	return fmt.Sprintf("https://cdn.cloudflare.steamstatic.com/steam/apps/%d/header.jpg", body.Items[0].ID), nil
}
