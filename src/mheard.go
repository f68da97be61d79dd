package ax25

/*------------------------------------------------------------------
 *
 * Purpose:	Maintain a list of all stations heard.
 *
 * Description: It should be noted that here "heard" refers to the AX.25
 *		source station.  The "heard" column of the packet log is
 *		different.  That is who we heard over the radio, which
 *		could be the digipeater with "*" after its name.
 *
 *		Why mheard instead of just heard?  The KPC-3+ has an MHEARD
 *		command to list stations heard.
 *
 *		The list is kept in SQLite so other applications can
 *		look at it while we are running.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	_ "modernc.org/sqlite" // register sqlite driver
)

type HeardStation struct {
	Callsign  string    // Callsign from the AX.25 source field.
	Count     int       // Number of times heard.
	Channel   int       // Most recent channel where heard.
	Hops      int       // Digipeater hops before we heard it.  Zero when heard directly.
	Via       string    // Path of the most recent frame.
	LastHeard time.Time //
}

type HeardDB struct {
	db *sql.DB
}

/*------------------------------------------------------------------
 *
 * Function:	OpenHeardDB
 *
 * Purpose:	Open or create the database.
 *
 * Inputs:	path	- File name.
 *
 *------------------------------------------------------------------*/

func OpenHeardDB(ctx context.Context, path string) (*HeardDB, error) {
	var db, err = sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS heard (
			callsign   TEXT PRIMARY KEY,
			count      INTEGER NOT NULL,
			channel    INTEGER NOT NULL,
			hops       INTEGER NOT NULL,
			via        TEXT NOT NULL,
			last_heard INTEGER NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create heard table: %w", err)
	}

	return &HeardDB{db: db}, nil
}

func (h *HeardDB) Close() error {
	return h.db.Close()
}

/*------------------------------------------------------------------
 *
 * Function:	DigiHops
 *
 * Purpose:	How many digipeaters has it gone thru before we hear it?
 *
 * Description:	We can count the number of digi addresses that are marked
 *		as "has been used."  This is not always accurate because
 *		there is inconsistency in digipeater behavior.  Sometimes
 *		we see left over WIDEn-0 entries which were used by
 *		a digipeater already counted.  Don't count those.
 *
 *------------------------------------------------------------------*/

func DigiHops(f *Frame) int {
	var hops = f.HeardIndex() - AX25_SOURCE

	if hops > 1 {
		for _, a := range f.Path {
			if a.Digi() && a.SSID() == 0 && isWIDEn(a.Callsign()) {
				hops--
			}
		}
	}

	return hops
}

func isWIDEn(call string) bool {
	return len(call) == 5 && strings.EqualFold(call[:4], "WIDE") && unicode.IsDigit(rune(call[4]))
}

func formatVia(path []Address) string {
	var parts = make([]string, len(path))
	for i, a := range path {
		parts[i] = a.String()
	}

	return strings.Join(parts, ",")
}

// Record saves the source station of a frame received on channel.
func (h *HeardDB) Record(ctx context.Context, channel int, f *Frame, at time.Time) error {
	var _, err = h.db.ExecContext(ctx, `
		INSERT INTO heard(callsign, count, channel, hops, via, last_heard)
		VALUES (?, 1, ?, ?, ?, ?)
		ON CONFLICT(callsign) DO UPDATE SET
			count = heard.count + 1,
			channel = excluded.channel,
			hops = excluded.hops,
			via = excluded.via,
			last_heard = excluded.last_heard
	`, f.Source.CallsignWithSSID(), channel, DigiHops(f), formatVia(f.Path), at.UnixMilli())
	if err != nil {
		return fmt.Errorf("record heard station: %w", err)
	}

	return nil
}

// List gives all stations, most recently heard first.
func (h *HeardDB) List(ctx context.Context) ([]HeardStation, error) {
	var rows, err = h.db.QueryContext(ctx, `
		SELECT callsign, count, channel, hops, via, last_heard
		FROM heard
		ORDER BY last_heard DESC, callsign
	`)
	if err != nil {
		return nil, fmt.Errorf("list heard stations: %w", err)
	}
	defer rows.Close()

	var out []HeardStation

	for rows.Next() {
		var s HeardStation
		var ms int64

		if err := rows.Scan(&s.Callsign, &s.Count, &s.Channel, &s.Hops, &s.Via, &ms); err != nil {
			return nil, fmt.Errorf("scan heard station: %w", err)
		}

		s.LastHeard = time.UnixMilli(ms)
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list heard stations: %w", err)
	}

	return out, nil
}

/*------------------------------------------------------------------
 *
 * Function:	Count
 *
 * Purpose:	Count the stations heard recently and not too far away.
 *
 * Inputs:	maxHops	- Include only stations heard with this number of
 *			  digipeater hops or less.
 *
 *		since	- Include only stations heard at or after this time.
 *
 *------------------------------------------------------------------*/

func (h *HeardDB) Count(ctx context.Context, maxHops int, since time.Time) (int, error) {
	var n int

	var err = h.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM heard WHERE hops <= ? AND last_heard >= ?
	`, maxHops, since.UnixMilli()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count heard stations: %w", err)
	}

	return n, nil
}

/* convert some time in past to hours:minutes text format. */

func heardAge(now, t time.Time) string {
	if t.IsZero() {
		return "-  "
	}

	var d = now.Sub(t)

	return fmt.Sprintf("%4d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// Dump prints the list, most recent first.
func (h *HeardDB) Dump(ctx context.Context, w io.Writer, now time.Time) error {
	var stations, err = h.List(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "callsign  cnt chan hops    age  via\n")

	for _, s := range stations {
		fmt.Fprintf(w, "%-9s %3d   %d   %d  %7s  %s\n",
			s.Callsign, s.Count, s.Channel, s.Hops, heardAge(now, s.LastHeard), s.Via)
	}

	return nil
} /* end Dump */
