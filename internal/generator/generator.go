package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

// Dataset contains generated raw records per collection, shaped the way the
// historical code paths actually stored them: inconsistent field names, mixed
// email casing, ids missing where the writing code never set them.
type Dataset struct {
	Users       []store.RawRecord `json:"users"`
	Investments []store.RawRecord `json:"investments"`
	Requests    []store.RawRecord `json:"investmentRequests"`
	Ownership   []store.RawRecord `json:"plotOwnership"`
}

// Generator produces synthetic admin-backend data with schema drift.
type Generator struct {
	cfg       Config
	rand      *rand.Rand
	fragments nameFragments
}

// Field-name variants observed across the historical writers. Each record
// picks one at random so a generated dataset exercises the resolver tables
// instead of a single canonical shape.
var (
	emailKeys      = []string{"email", "user_email", "userEmail", "Email"}
	phoneKeys      = []string{"phone", "phone_number", "phoneNumber", "contact_number", "mobile"}
	nameKeys       = []string{"display_name", "displayName", "full_name", "name"}
	areaKeys       = []string{"sqm_purchased", "sqm", "sqmPurchased", "sqm_bought", "purchased_sqm", "area"}
	amountKeys     = []string{"amount_paid", "amountPaid", "amount", "total_amount"}
	userIDKeys      = []string{"user_id", "userId", "uid", "investor_id"}
	userCreatedKeys = []string{"created_at", "createdAt", "signup_date", "registered_at", "date_joined"}
	invCreatedKeys  = []string{"created_at", "createdAt", "timestamp", "purchase_date"}
	userStatusPool  = []string{"active", "Active", "inactive", "disabled", ""}
)

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.NumInvestments <= 0 {
		cfg.NumInvestments = def.NumInvestments
	}
	if cfg.DuplicateUserChance <= 0 {
		cfg.DuplicateUserChance = def.DuplicateUserChance
	}
	if cfg.RequestEchoChance <= 0 {
		cfg.RequestEchoChance = def.RequestEchoChance
	}
	if cfg.MissingUserIDChance <= 0 {
		cfg.MissingUserIDChance = def.MissingUserIDChance
	}
	if cfg.OwnershipCoverage <= 0 {
		cfg.OwnershipCoverage = def.OwnershipCoverage
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:       cfg,
		rand:      rand.New(rand.NewSource(cfg.Seed)),
		fragments: defaultNameFragments(),
	}
}

// Generate synthesises the four collections. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	var ds Dataset
	now := time.Now().UTC()

	type identity struct {
		id    string
		email string
	}
	identities := make([]identity, 0, g.cfg.NumUsers)

	for i := 0; i < g.cfg.NumUsers; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		userID := fmt.Sprintf("usr-%06d", i+1)
		email := g.randomEmail()
		// duplicate account: a second profile reusing an earlier email,
		// drifted in casing and whitespace
		if len(identities) > 0 && g.rand.Float64() < g.cfg.DuplicateUserChance {
			email = identities[g.rand.Intn(len(identities))].email
		}
		identities = append(identities, identity{id: userID, email: email})

		rec := store.RawRecord{
			store.IDField:          userID,
			g.pick(emailKeys):      g.driftEmail(email),
			g.pick(nameKeys):       g.randomFullName(),
			g.pick(phoneKeys):      g.randomPhone(),
			g.pick(userCreatedKeys): now.Add(-time.Duration(g.rand.Intn(365*24)) * time.Hour),
		}
		if status := userStatusPool[g.rand.Intn(len(userStatusPool))]; status != "" {
			rec["status"] = status
		} else if g.rand.Float64() < 0.5 {
			rec["isActive"] = g.rand.Float64() < 0.8
		}
		ds.Users = append(ds.Users, rec)
	}

	for i := 0; i < g.cfg.NumInvestments; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		invID := fmt.Sprintf("inv-%07d", i+1)
		owner := identities[g.rand.Intn(len(identities))]
		plotID := fmt.Sprintf("plot-%03d", g.rand.Intn(40)+1)
		area := float64(g.rand.Intn(490)+10)
		amount := area * float64(g.rand.Intn(9000)+1000)
		createdAt := now.Add(-time.Duration(g.rand.Intn(365*24)) * time.Hour)

		rec := store.RawRecord{
			store.IDField:          invID,
			"plot_id":              plotID,
			g.pick(areaKeys):       area,
			g.pick(amountKeys):     amount,
			g.pick(invCreatedKeys): createdAt,
			"status":               "completed",
		}
		// some writers stored only the email, never the user id
		if g.rand.Float64() < g.cfg.MissingUserIDChance {
			rec[g.pick(emailKeys)] = g.driftEmail(owner.email)
		} else {
			rec[g.pick(userIDKeys)] = owner.id
		}
		ds.Investments = append(ds.Investments, rec)

		// approved request echoing the ledger entry: same email, amount and
		// area, no back-reference — the aggregator must not count it twice
		if g.rand.Float64() < g.cfg.RequestEchoChance {
			ds.Requests = append(ds.Requests, store.RawRecord{
				store.IDField:      fmt.Sprintf("req-%07d", i+1),
				g.pick(emailKeys):  g.driftEmail(owner.email),
				g.pick(areaKeys):   area,
				g.pick(amountKeys): amount,
				"status":           "approved",
				"created_at":       createdAt,
			})
		}

		// partial backfill: only a fraction of investments already carry an
		// ownership record, leaving the rest for the migration to create
		if g.rand.Float64() < g.cfg.OwnershipCoverage {
			ds.Ownership = append(ds.Ownership, store.RawRecord{
				store.IDField:   fmt.Sprintf("own-%07d", i+1),
				"user_id":       owner.id,
				"plot_id":       plotID,
				"investment_id": invID,
				"sqm_owned":     area,
				"amount_paid":   amount,
				"created_at":    createdAt,
			})
		}
	}

	return ds, nil
}

func (g *Generator) pick(keys []string) string {
	return keys[g.rand.Intn(len(keys))]
}

// driftEmail reproduces the casing and whitespace noise found in stored
// records; the normalizer must collapse every variant to one identity.
func (g *Generator) driftEmail(email string) string {
	switch g.rand.Intn(4) {
	case 0:
		return strings.ToUpper(email)
	case 1:
		return " " + email + " "
	case 2:
		return strings.ToUpper(email[:1]) + email[1:]
	default:
		return email
	}
}

func (g *Generator) randomFullName() string {
	return fmt.Sprintf("%s %s", g.fragments.first[g.rand.Intn(len(g.fragments.first))],
		g.fragments.last[g.rand.Intn(len(g.fragments.last))])
}

func (g *Generator) randomEmail() string {
	domain := g.fragments.domains[g.rand.Intn(len(g.fragments.domains))]
	return fmt.Sprintf("%s.%s%d@%s",
		strings.ToLower(g.fragments.first[g.rand.Intn(len(g.fragments.first))]),
		strings.ToLower(g.fragments.last[g.rand.Intn(len(g.fragments.last))]),
		g.rand.Intn(1000), domain)
}

func (g *Generator) randomPhone() string {
	return fmt.Sprintf("+234%03d%03d%04d", g.rand.Intn(900)+100, g.rand.Intn(900)+100, g.rand.Intn(10000))
}

type nameFragments struct {
	first   []string
	last    []string
	domains []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:   []string{"Jane", "John", "Adaeze", "Chinedu", "Maria", "Omar", "Sofia", "Noah", "Emeka", "Ngozi", "Tunde", "Amara"},
		last:    []string{"Doe", "Okafor", "Smith", "Adeyemi", "Garcia", "Khan", "Eze", "Nwosu", "Silva", "Brown", "Balogun"},
		domains: []string{"example.com", "mail.com", "subx.ng", "gmail.com", "yahoo.com"},
	}
}
