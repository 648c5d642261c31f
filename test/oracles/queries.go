package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_unique_login",
			SQL: `SELECT login, COUNT(*) FROM centers
                  GROUP BY login HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_animal_owner_exists",
			SQL: `SELECT a.id FROM animals a
                  LEFT JOIN centers c ON c.id = a.center_id
                  WHERE c.id IS NULL`,
		},
		{
			Name: "O3_animal_specie_exists",
			SQL: `SELECT a.id FROM animals a
                  LEFT JOIN species s ON s.id = a.specie
                  WHERE s.id IS NULL`,
		},
		{
			Name: "O4_non_negative_age",
			SQL:  `SELECT id FROM animals WHERE age < 0`,
		},
		{
			Name: "O5_password_never_plaintext",
			SQL:  `SELECT id FROM centers WHERE password NOT LIKE '$2%'`,
		},
		{
			Name: "O6_auth_event_center_exists",
			SQL: `SELECT e.id FROM auth_events e
                  LEFT JOIN centers c ON c.id = e.center_id
                  WHERE c.id IS NULL`,
		},
		{
			Name: "O7_specie_price_positive",
			SQL:  `SELECT id FROM species WHERE price < 0`,
		},
		{
			Name: "O8_animal_fields_present",
			SQL:  `SELECT id FROM animals WHERE name = '' OR specie = ''`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
