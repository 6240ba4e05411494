// Command nestctl is a small read-side client for the nestsim HTTP API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/nestsim/internal/nest"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "nestsim API base URL")
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "status"
	}

	var err error
	switch cmd {
	case "status":
		err = showStatus(*addr)
	case "nest":
		err = showNest(*addr)
	case "offers":
		err = showOffers(*addr)
	default:
		fmt.Fprintf(os.Stderr, "usage: nestctl [-addr URL] [status|nest|offers]\n")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "nestctl: %v\n", err)
		os.Exit(1)
	}
}

func fetch(base, path string, v any) error {
	resp, err := http.Get(base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func showStatus(base string) error {
	var status struct {
		Level       int     `json:"level"`
		SeedStock   int64   `json:"seed_stock"`
		Assignments int     `json:"assignments"`
		Capacity    int     `json:"capacity"`
		Offers      int     `json:"offers"`
		PassiveRate float64 `json:"passive_rate"`
		UpgradeTo   int     `json:"upgrade_target"`
		CompletesAt int64   `json:"upgrade_completes_at_ms"`
	}
	if err := fetch(base, "/api/v1/status", &status); err != nil {
		return err
	}

	fmt.Printf("Nest level %d — %s seeds\n", status.Level, humanize.Comma(status.SeedStock))
	fmt.Printf("Assignments: %d/%d, passive rate %.1f seeds/hour\n",
		status.Assignments, status.Capacity, status.PassiveRate)
	fmt.Printf("Recruitment offers: %d\n", status.Offers)
	if status.UpgradeTo > 0 {
		fmt.Printf("Upgrading to level %d, completes %s\n",
			status.UpgradeTo, humanize.Time(time.UnixMilli(status.CompletesAt)))
	}
	return nil
}

func showNest(base string) error {
	var st nest.State
	if err := fetch(base, "/api/v1/nest", &st); err != nil {
		return err
	}

	fmt.Printf("Level %d, %s seeds, passive clock %s\n",
		st.Level, humanize.Comma(st.SeedStock),
		humanize.Time(time.UnixMilli(st.LastPassiveTickMillis)))
	for _, a := range st.Assignments {
		fmt.Printf("  [%s] %s the %s, assigned %s\n",
			a.SlotID, a.Critter.Name, a.Critter.Species,
			humanize.Time(time.UnixMilli(a.AssignedAtMillis)))
	}
	return nil
}

func showOffers(base string) error {
	var resp struct {
		Offers []nest.Offer `json:"offers"`
	}
	if err := fetch(base, "/api/v1/recruitment", &resp); err != nil {
		return err
	}

	if len(resp.Offers) == 0 {
		fmt.Println("No recruitment offers right now.")
		return nil
	}
	for _, o := range resp.Offers {
		fmt.Printf("  %s — %s the %s (%s), %s seeds, expires %s\n",
			o.ID, o.Critter.Name, o.Critter.Species, o.Critter.Affinity,
			humanize.Comma(o.SeedCost), humanize.Time(time.UnixMilli(o.ExpiresAtMillis)))
	}
	return nil
}
