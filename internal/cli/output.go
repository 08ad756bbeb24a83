package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/services/cloudsync"
	"github.com/mcoot/bankerscore/internal/services/settlement"
)

const timeLayout = "2006-01-02 15:04"

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case []GameSummary:
		o.printGameList(v)
	case GameSummary:
		o.printGameSummary(v)
	case GameView:
		o.printGameView(v)
	case Standings:
		o.printStandings(v)
	case *settlement.Table:
		o.printTable(v)
	case SyncStatus:
		o.printSyncStatus(v)
	case SyncReport:
		o.printSyncReport(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// GameSummary is one registry entry as listed
type GameSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Creator      string    `json:"creator"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
	LastEditor   string    `json:"lastEditor"`
	Players      int       `json:"playerCount"`
	Rounds       int       `json:"roundCount"`
	Current      bool      `json:"current"`
	LockedBy     string    `json:"lockedBy,omitempty"`
	SyncStatus   string    `json:"syncStatus"`
}

// GameView is the state of the current game
type GameView struct {
	Game         GameSummary    `json:"game"`
	Started      bool           `json:"started"`
	CurrentRound int            `json:"currentRound"`
	Banker       string         `json:"banker,omitempty"`
	BankerRounds int            `json:"bankerRounds"`
	Players      []model.Player `json:"players"`
	OpenRound    *model.Round   `json:"openRound,omitempty"`
}

// Standings is the leaderboard of the current game
type Standings struct {
	Game    string         `json:"game"`
	Players []model.Player `json:"players"`
}

// SyncStatus is the sync engine status as reported
type SyncStatus struct {
	State             string     `json:"state"`
	SignedIn          bool       `json:"signedIn"`
	UserID            string     `json:"userId,omitempty"`
	Online            bool       `json:"online"`
	AutoSync          bool       `json:"autoSync"`
	HasUnsavedChanges bool       `json:"hasUnsavedChanges"`
	LastSync          *time.Time `json:"lastSync,omitempty"`
	LastError         string     `json:"lastError,omitempty"`
	ErrorCategory     string     `json:"errorCategory,omitempty"`
}

// SyncReport is the outcome of a sync command
type SyncReport struct {
	Action         string     `json:"action"`
	NoRemoteData   bool       `json:"noRemoteData,omitempty"`
	Conflict       bool       `json:"conflict"`
	LocalModified  *time.Time `json:"localModified,omitempty"`
	RemoteModified *time.Time `json:"remoteModified,omitempty"`
	LocalOnly      int        `json:"localOnly"`
	RemoteOnly     int        `json:"remoteOnly"`
	LocalNewer     int        `json:"localNewer"`
	RemoteNewer    int        `json:"remoteNewer"`
	Uploaded       bool       `json:"uploaded"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}

func newGameSummary(e *model.Entry, current model.GameID, now time.Time) GameSummary {
	s := GameSummary{
		ID:           string(e.ID),
		Name:         e.Name,
		Creator:      e.Creator,
		CreatedAt:    e.CreatedAt,
		LastModified: e.LastModified,
		LastEditor:   e.LastEditor,
		Players:      e.PlayerCount,
		Rounds:       e.RoundCount,
		Current:      e.ID == current,
		SyncStatus:   string(e.SyncStatus),
	}
	if e.Lock.IsActive(now) {
		s.LockedBy = e.Lock.Holder
	}
	return s
}

func newSyncStatus(st cloudsync.Status) SyncStatus {
	s := SyncStatus{
		State:             string(st.State),
		SignedIn:          st.SignedIn,
		UserID:            st.UserID,
		Online:            st.Online,
		AutoSync:          st.AutoSync,
		HasUnsavedChanges: st.HasUnsavedChanges,
		LastSync:          st.LastSync,
	}
	if st.LastError != nil {
		s.LastError = st.LastError.Message
		s.ErrorCategory = string(st.LastError.Category)
	}
	return s
}

func newSyncReport(action string, r *cloudsync.SyncResult) SyncReport {
	report := SyncReport{Action: action}
	if r == nil {
		return report
	}
	report.NoRemoteData = r.NoRemoteData
	report.Uploaded = r.Uploaded
	report.LocalOnly = r.Stats.LocalOnly
	report.RemoteOnly = r.Stats.RemoteOnly
	report.LocalNewer = r.Stats.LocalNewer
	report.RemoteNewer = r.Stats.RemoteNewer
	if r.Conflict != nil {
		report.Conflict = true
		local, remote := r.Conflict.LocalModified, r.Conflict.RemoteModified
		report.LocalModified = &local
		report.RemoteModified = &remote
	}
	return report
}

func (o *Output) printGameList(games []GameSummary) {
	if len(games) == 0 {
		_, _ = fmt.Fprintln(o.w, "No games yet. Create one with: bankerscore game create <name>")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "\tNAME\tID\tPLAYERS\tROUNDS\tMODIFIED\tEDITOR\tSYNC")
	for _, g := range games {
		marker := ""
		if g.Current {
			marker = "*"
		}
		name := g.Name
		if g.LockedBy != "" {
			name += " [locked by " + g.LockedBy + "]"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			marker, name, g.ID, g.Players, g.Rounds,
			g.LastModified.Local().Format(timeLayout), g.LastEditor, g.SyncStatus)
	}
	_ = tw.Flush()
}

func (o *Output) printGameSummary(g GameSummary) {
	_, _ = fmt.Fprintf(o.w, "Game: %s (%s)\n", g.Name, g.ID)
	_, _ = fmt.Fprintf(o.w, "Created by %s at %s\n", g.Creator, g.CreatedAt.Local().Format(timeLayout))
	if g.LockedBy != "" {
		_, _ = fmt.Fprintf(o.w, "Locked by: %s\n", g.LockedBy)
	}
}

func (o *Output) printGameView(v GameView) {
	o.printGameSummary(v.Game)
	if !v.Started {
		_, _ = fmt.Fprintf(o.w, "Setup: %d player(s) seated, confirm with: bankerscore player confirm\n", len(v.Players))
		for _, p := range v.Players {
			_, _ = fmt.Fprintf(o.w, "  - %s\n", p.Name)
		}
		return
	}

	_, _ = fmt.Fprintf(o.w, "Round: %d (banker serves %d rounds)\n", v.CurrentRound, v.BankerRounds)
	if v.Banker == "" {
		_, _ = fmt.Fprintln(o.w, "Banker: none, select one with: bankerscore round banker <player>")
	} else {
		_, _ = fmt.Fprintf(o.w, "Banker: %s\n", v.Banker)
	}

	if v.OpenRound != nil {
		_, _ = fmt.Fprintln(o.w, "\nThis round:")
		for _, rec := range v.OpenRound.Records {
			if rec.Completed {
				_, _ = fmt.Fprintf(o.w, "  %s: %+d\n", rec.PlayerName, rec.Amount)
			} else {
				_, _ = fmt.Fprintf(o.w, "  %s: pending\n", rec.PlayerName)
			}
		}
		_, _ = fmt.Fprintf(o.w, "  %s (banker): %+d\n", v.OpenRound.BankerName, v.OpenRound.BankerTotal())
	}

	_, _ = fmt.Fprintln(o.w, "\nTotals:")
	for _, p := range v.Players {
		_, _ = fmt.Fprintf(o.w, "  %s: %+d\n", p.Name, p.TotalWinLoss)
	}
}

func (o *Output) printStandings(s Standings) {
	_, _ = fmt.Fprintf(o.w, "Standings for %s\n", s.Game)
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tPLAYER\tTOTAL\tBANKER ROUNDS")
	for i, p := range s.Players {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%+d\t%d\n", i+1, p.Name, p.TotalWinLoss, p.BankerRounds)
	}
	_ = tw.Flush()
}

func (o *Output) printTable(t *settlement.Table) {
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(o.w, "No rounds recorded")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	header := []string{"ROUND", "BANKER"}
	for _, p := range t.Players {
		header = append(header, p.Name)
	}
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range t.Rows {
		cells := []string{fmt.Sprint(row.RoundNumber), row.BankerName}
		for _, c := range row.Cells {
			switch {
			case !c.Seated:
				cells = append(cells, "-")
			case !c.Completed:
				cells = append(cells, "?")
			case c.Banker:
				cells = append(cells, fmt.Sprintf("%+d (B)", c.Amount))
			default:
				cells = append(cells, fmt.Sprintf("%+d", c.Amount))
			}
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func (o *Output) printSyncStatus(s SyncStatus) {
	if s.SignedIn {
		_, _ = fmt.Fprintf(o.w, "Signed in as: %s\n", s.UserID)
	} else {
		_, _ = fmt.Fprintln(o.w, "Not signed in")
	}
	_, _ = fmt.Fprintf(o.w, "State: %s\n", s.State)
	if s.HasUnsavedChanges {
		_, _ = fmt.Fprintln(o.w, "Unsynced changes: yes")
	} else {
		_, _ = fmt.Fprintln(o.w, "Unsynced changes: no")
	}
	if s.LastSync != nil {
		_, _ = fmt.Fprintf(o.w, "Last sync: %s\n", s.LastSync.Local().Format(timeLayout))
	}
	if s.LastError != "" {
		_, _ = fmt.Fprintf(o.w, "Last error (%s): %s\n", s.ErrorCategory, s.LastError)
	}
}

func (o *Output) printSyncReport(r SyncReport) {
	if r.Conflict {
		_, _ = fmt.Fprintln(o.w, "Conflict: local changes are newer than the cloud copy")
		if r.LocalModified != nil && r.RemoteModified != nil {
			_, _ = fmt.Fprintf(o.w, "  local:  %s\n", r.LocalModified.Local().Format(timeLayout))
			_, _ = fmt.Fprintf(o.w, "  remote: %s\n", r.RemoteModified.Local().Format(timeLayout))
		}
		_, _ = fmt.Fprintln(o.w, "Resolve with: bankerscore sync resolve keep-local|adopt-remote")
		return
	}
	if r.NoRemoteData {
		_, _ = fmt.Fprintln(o.w, "No cloud data yet")
	} else if r.Action == "pull" || r.Action == "login" {
		_, _ = fmt.Fprintf(o.w, "Merged: %d from cloud, %d newer in cloud, %d kept local\n",
			r.RemoteOnly, r.RemoteNewer, r.LocalOnly+r.LocalNewer)
	}
	if r.Uploaded {
		_, _ = fmt.Fprintln(o.w, "Uploaded to cloud")
	} else if r.Action == "sync" {
		_, _ = fmt.Fprintln(o.w, "Nothing to upload")
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Docstore: %s\n", h.URL)
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
