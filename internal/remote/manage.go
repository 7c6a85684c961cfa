package remote

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/IAMVanilka/Mnemy/internal/logger"
	"go.uber.org/zap"
)

// GamesData lists the games the server knows about. The server must
// answer with JSON; anything else is a protocol error.
func (c *Client) GamesData(ctx context.Context) ([]map[string]any, error) {
	host, token, err := c.creds()
	if err != nil {
		return nil, err
	}

	var body gamesDataResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetSuccessResult(&body).
		Get(host + epGamesData)

	if err := checkResponse(resp, err, "get games data"); err != nil {
		return nil, err
	}

	if ct := resp.GetHeader("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return nil, &ProtocolError{
			Op:     "get games data",
			Status: resp.StatusCode,
			Detail: "non-JSON content type " + ct,
		}
	}

	return body.GamesList, nil
}

// DeleteGame removes a game on the server, optionally including its
// backups. A 204 means the game did not exist there; treated as
// success.
func (c *Client) DeleteGame(ctx context.Context, game string, deleteBackups bool) error {
	host, token, err := c.creds()
	if err != nil {
		return err
	}

	r := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token)
	if deleteBackups {
		r.SetQueryParam("delete_backups", "true")
	}

	resp, err := r.Delete(host + epDeleteGame + game)
	if err := checkResponse(resp, err, "delete game"); err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		logger.Log.Info("game was not present on server", zap.String("game", game))
	}

	return nil
}

func (c *Client) RenameGame(ctx context.Context, oldName, newName string) error {
	host, token, err := c.creds()
	if err != nil {
		return err
	}

	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetQueryParam("new_game_name", newName).
		Patch(host + epUpdateGame + oldName)

	return checkResponse(resp, err, "rename game")
}

// CheckToken validates the stored credential against the server.
func (c *Client) CheckToken(ctx context.Context) (bool, error) {
	host, token, err := c.creds()
	if err != nil {
		return false, err
	}

	var body tokenStatusResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetHeader(headerToken, token).
		SetSuccessResult(&body).
		Get(host + epCheckToken)

	if err := checkResponse(resp, err, "check token"); err != nil {
		return false, err
	}

	return body.TokenStatus, nil
}

// CheckHealth probes the server's liveness endpoint. hostOverride,
// when non-empty, is probed instead of the configured host, so a new
// host can be validated before saving it. No token required.
func (c *Client) CheckHealth(ctx context.Context, hostOverride string) bool {
	host := hostOverride
	if host == "" {
		var err error
		if host, err = c.loadHost(); err != nil || host == "" {
			return false
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.api.R().
		SetContext(ctx).
		Get(host + epHealth)
	if err != nil {
		return false
	}

	return resp.StatusCode == http.StatusOK
}
