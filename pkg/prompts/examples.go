package prompts

import (
	"fmt"
	"strings"

	"github.com/anass1209/NL2SQL/pkg/models"
	"github.com/anass1209/NL2SQL/pkg/sql"
)

type example struct {
	question string
	sql      string
}

// SelectExamples picks few-shot examples for the intent:
//   - customers with a city filter: a list/count pair for that city
//   - orders: a list/count pair
//   - customers and orders: a join
//   - nothing matched: a generic customers/products pair
//
// Examples are phrased in the question's language. A city value that libinjection
// flags is never interpolated; its pair is skipped.
func SelectExamples(intent *models.IntentRecord) string {
	if intent == nil {
		intent = models.DefaultIntent()
	}
	french := intent.Language == models.LanguageFrench

	var examples []example

	hasCustomers := intent.HasTable("customers")
	hasOrders := intent.HasTable("orders")

	if hasCustomers {
		if city, ok := intent.Filter("city"); ok && city != "" && sql.CheckParameterForInjection("city", city) == nil {
			literal := quoteLiteral(city)
			if french {
				examples = append(examples,
					example{fmt.Sprintf("Montre-moi tous les clients de %s", city), fmt.Sprintf("SELECT * FROM customers WHERE city = %s;", literal)},
					example{fmt.Sprintf("Combien de clients vivent à %s?", city), fmt.Sprintf("SELECT COUNT(*) FROM customers WHERE city = %s;", literal)},
				)
			} else {
				examples = append(examples,
					example{fmt.Sprintf("Show me all customers from %s", city), fmt.Sprintf("SELECT * FROM customers WHERE city = %s;", literal)},
					example{fmt.Sprintf("Count how many customers are from %s", city), fmt.Sprintf("SELECT COUNT(*) FROM customers WHERE city = %s;", literal)},
				)
			}
		}
	}

	if hasOrders {
		if french {
			examples = append(examples,
				example{"Montrez-moi toutes les commandes", "SELECT * FROM orders;"},
				example{"Combien de commandes avons-nous au total?", "SELECT COUNT(*) FROM orders;"},
			)
		} else {
			examples = append(examples,
				example{"Show me all orders", "SELECT * FROM orders;"},
				example{"How many orders do we have in total?", "SELECT COUNT(*) FROM orders;"},
			)
		}
	}

	if hasCustomers && hasOrders {
		join := "SELECT c.*, o.* FROM customers c JOIN orders o ON c.customer_id = o.customer_id;"
		if french {
			examples = append(examples, example{"Montrez-moi les clients et leurs commandes", join})
		} else {
			examples = append(examples, example{"Show me customers and their orders", join})
		}
	}

	if len(examples) == 0 {
		if french {
			examples = append(examples,
				example{"Montrez-moi tous les clients", "SELECT * FROM customers;"},
				example{"Listez tous les produits", "SELECT * FROM products;"},
			)
		} else {
			examples = append(examples,
				example{"Show me all customers", "SELECT * FROM customers;"},
				example{"List all products", "SELECT * FROM products;"},
			)
		}
	}

	label := "Query"
	if french {
		label = "Requête"
	}

	var b strings.Builder
	for i, ex := range examples {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s\nSQL: %s\n", label, ex.question, ex.sql)
	}
	return b.String()
}

// quoteLiteral renders a SQL string literal, doubling embedded quotes.
func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
