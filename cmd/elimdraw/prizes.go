package main

import (
	"fmt"
	"strings"

	"github.com/lox/elimdraw/cmd/elimdraw/shared"
	"github.com/lox/elimdraw/internal/lottery"
	"github.com/lox/elimdraw/internal/server"
)

// PrizesCmd lists the prize payout audit log from the durable store.
type PrizesCmd struct {
	Config string `kong:"default='elimdraw.hcl',help='Path to HCL config file'"`
}

func (c *PrizesCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := shared.SetupLoggerWithLevel("error")
	store, err := lottery.NewStore(logger, cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	records, err := store.PrizeRecords()
	if err != nil {
		return fmt.Errorf("read prize records: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no prize records")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  game=%s  prize=%d  survivors=%d  per=%d  winners=%s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.GameID, rec.PrizeAmount, rec.TotalSurvivors, rec.PrizePerSurvivor,
			strings.Join(rec.Winners, ","))
	}
	return nil
}
