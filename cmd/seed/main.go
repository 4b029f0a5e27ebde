package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/Wikid82/logtrackr/internal/config"
	"github.com/Wikid82/logtrackr/internal/database"
	"github.com/Wikid82/logtrackr/internal/logger"
	"github.com/Wikid82/logtrackr/internal/models"
	"github.com/Wikid82/logtrackr/internal/services"
)

var (
	sampleThreats = []struct {
		threat   string
		message  string
		severity models.Severity
	}{
		{"sqli", "SQL injection attempt in login form", models.SeverityCritical},
		{"xss", "Reflected script tag in search parameter", models.SeverityHigh},
		{"bruteforce", "Repeated failed SSH logins", models.SeverityHigh},
		{"portscan", "Sequential TCP SYN probes", models.SeverityMedium},
		{"malware", "Known C2 beacon domain resolved", models.SeverityCritical},
		{"policy", "Outbound connection to blocked country", models.SeverityLow},
		{"", "Firewall rule reloaded", models.SeverityInfo},
	}
	sampleIPs = []string{
		"203.0.113.7", "203.0.113.42", "198.51.100.23", "198.51.100.99",
		"192.0.2.10", "192.0.2.77", "10.20.30.40", "2001:db8::bad:1",
	}
	sampleLocations = []string{"Frankfurt, DE", "Ashburn, US", "Singapore, SG", ""}
)

// sampleCSV renders n events spread over the week before now. Every tenth
// row is deliberately invalid so the seeded audit trail shows rejections.
func sampleCSV(now time.Time, n int, seed uint64) string {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var b strings.Builder
	b.WriteString("timestamp,source_ip,severity,message,threat_type,location\n")
	for i := 0; i < n; i++ {
		t := sampleThreats[rng.IntN(len(sampleThreats))]
		ts := now.Add(-time.Duration(rng.Int64N(int64(7 * 24 * time.Hour))))
		ip := sampleIPs[rng.IntN(len(sampleIPs))]
		stamp := ts.UTC().Format("2006-01-02 15:04:05")
		if i%2 == 1 {
			stamp = ts.UTC().Format("02.01.2006 15:04:05")
		}
		if i%10 == 9 {
			ip = "999.0.0.1"
		}
		fmt.Fprintf(&b, "%s,%s,%s,%q,%s,%q\n", stamp, ip, strings.ToUpper(string(t.severity)), t.message, t.threat,
			sampleLocations[rng.IntN(len(sampleLocations))])
	}
	return b.String()
}

func main() {
	email := flag.String("email", "admin@example.com", "demo account email")
	password := flag.String("password", "changeme123", "demo account password")
	count := flag.Int("count", 500, "number of sample events")
	flag.Parse()

	logger.Init(false, os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}
	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("connect database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Log().WithError(err).Fatal("migrate database")
	}
	fmt.Println("✓ Database migrated successfully")

	auth := services.NewAuthService(db, cfg)
	user, err := auth.Register(*email, *password, "Demo Admin")
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		var existing models.User
		if err := db.Where("email = ?", strings.ToLower(*email)).First(&existing).Error; err != nil {
			logger.Log().WithError(err).Fatal("load demo user")
		}
		user = &existing
		fmt.Printf("  User already exists: %s\n", user.Email)
	case err != nil:
		logger.Log().WithError(err).Fatal("create demo user")
	default:
		fmt.Printf("✓ Created user: %s (%s)\n", user.Email, user.Role)
	}

	body := sampleCSV(time.Now(), *count, uint64(time.Now().UnixNano()))
	uploads := services.NewUploadService(db, services.NewLogService(db), int64(len(body))+1, nil)
	res, err := uploads.Ingest(context.Background(), services.Upload{
		Filename:  "seed.csv",
		Size:      int64(len(body)),
		Body:      strings.NewReader(body),
		ActorID:   user.ID,
		ActorName: user.Email,
	})
	if err != nil {
		logger.Log().WithError(err).Fatal("ingest sample events")
	}
	fmt.Printf("✓ Ingested %d sample events (%d rows rejected)\n", res.Created, res.Rejected)
}
