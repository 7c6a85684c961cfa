package remote

// Endpoint paths of the Mnemy backup server.
const (
	epCheckFiles     = "/files/check_files"
	epUploadData     = "/files/upload_data"
	epDownloadData   = "/files/download_data"
	epBackupsData    = "/files/get_backups_data"
	epRestoreBackup  = "/files/restore_backup"
	epDeleteBackup   = "/files/delete_backup"
	epGetImage       = "/files/get_image/"
	epGamesData      = "/manage/get_games_data"
	epDeleteGame     = "/manage/delete/game/"
	epUpdateGame     = "/manage/update_game/"
	epCheckToken     = "/manage/check_x_token"
	epHealth         = "/manage/health"
	headerToken      = "x-api-token"
	uploadFilename   = "files.tar.gz"
	uploadFieldFile  = "file"
	uploadFieldGame  = "game_name"
)

// DiffResult is the server's answer to a check_files call. Redirect
// means the server has no baseline for the game and the client must
// pull a full copy instead of uploading increments. Otherwise the
// union of the two path sets is exactly what must be (re)uploaded.
type DiffResult struct {
	Redirect         bool
	MissingOnServer  []string
	MismatchedHashes []string
}

// UploadList returns the ordered union of missing and mismatched
// paths.
func (d *DiffResult) UploadList() []string {
	out := make([]string, 0, len(d.MissingOnServer)+len(d.MismatchedHashes))
	out = append(out, d.MissingOnServer...)
	out = append(out, d.MismatchedHashes...)
	return out
}

type checkFilesRequest struct {
	GameName     string            `json:"game_name"`
	FilesData    map[string]string `json:"files_data"`
	LastSyncDate *string           `json:"last_sync_date"`
}

type checkFilesResponse struct {
	FilesData struct {
		MissingOnServer  []string `json:"missing_on_server"`
		MismatchedHashes []string `json:"mismatched_hashes"`
	} `json:"files_data"`
}

type gamesDataResponse struct {
	GamesList []map[string]any `json:"games_list"`
}

type tokenStatusResponse struct {
	TokenStatus bool `json:"token_status"`
}

type backupRequest struct {
	GameName   string `json:"game_name"`
	BackupName string `json:"backup_name"`
}
