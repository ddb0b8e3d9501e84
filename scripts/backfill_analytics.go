package main

import (
	"database/sql"
	"log"

	_ "github.com/lib/pq"

	"affiliate-platform/internal/config"
)

// Rebuilds the analytics daily rollups from the raw click_events and
// commissions tables. Safe to re-run: the table is truncated first. Meant
// for recovery after a rollup bug, not for routine operation. Note that
// reversal decrements posted to later days cannot be reconstructed from the
// raw rows, so reversed commissions are excluded entirely instead.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`TRUNCATE analytics RESTART IDENTITY`); err != nil {
		log.Fatalf("Failed to truncate analytics: %v", err)
	}

	clicksResult, err := tx.Exec(`
		INSERT INTO analytics (date, link_id, affiliate_id, clicks, conversions, revenue)
		SELECT date_trunc('day', timestamp AT TIME ZONE 'UTC'),
		       link_id,
		       affiliate_id,
		       COUNT(*),
		       0,
		       0
		FROM click_events
		WHERE is_bot = FALSE
		GROUP BY 1, 2, 3
	`)
	if err != nil {
		log.Fatalf("Failed to backfill clicks: %v", err)
	}
	clickRows, _ := clicksResult.RowsAffected()

	conversionsResult, err := tx.Exec(`
		INSERT INTO analytics (date, link_id, affiliate_id, clicks, conversions, revenue)
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC'),
		       COALESCE(link_id, 0),
		       affiliate_id,
		       0,
		       COUNT(*),
		       SUM(sale_amount)
		FROM commissions
		WHERE status <> 'reversed'
		GROUP BY 1, 2, 3
		ON CONFLICT (date, link_id, affiliate_id) DO UPDATE SET
			conversions = analytics.conversions + EXCLUDED.conversions,
			revenue     = analytics.revenue + EXCLUDED.revenue
	`)
	if err != nil {
		log.Fatalf("Failed to backfill conversions: %v", err)
	}
	conversionRows, _ := conversionsResult.RowsAffected()

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Printf("Backfill complete: %d click buckets, %d conversion buckets", clickRows, conversionRows)
}
