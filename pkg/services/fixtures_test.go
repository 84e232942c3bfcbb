package services

import (
	"github.com/anass1209/NL2SQL/pkg/adapters/datasource"
	"github.com/anass1209/NL2SQL/pkg/models"
)

func storeSchema() models.SchemaMap {
	return models.SchemaMap{
		"customers": {
			{Name: "customer_id", DataType: "integer"},
			{Name: "name", DataType: "text"},
			{Name: "city", DataType: "text"},
		},
		"orders": {
			{Name: "order_id", DataType: "integer"},
			{Name: "customer_id", DataType: "integer"},
			{Name: "order_date", DataType: "date"},
		},
		"products": {
			{Name: "product_id", DataType: "integer"},
			{Name: "name", DataType: "text"},
		},
	}
}

func storeSamples() models.SampleSet {
	cols := []string{"customer_id", "name", "city"}
	return models.SampleSet{
		"customers": {
			{Columns: cols, Values: map[string]any{"customer_id": 1, "name": "Amina Benali", "city": "Casablanca"}},
			{Columns: cols, Values: map[string]any{"customer_id": 2, "name": "Youssef Idrissi", "city": "Rabat"}},
		},
	}
}

func storeConn() *datasource.MockConn {
	return datasource.NewFixtureConn(storeSchema(), storeSamples())
}

func casablancaIntent() *models.IntentRecord {
	return &models.IntentRecord{
		CorrectedText: "show me all customers from casablanca",
		Tables:        []string{"customers"},
		Filters:       map[string]string{"city": "Casablanca"},
		Action:        models.ActionList,
		Language:      models.LanguageEnglish,
	}
}

const casablancaIntentReply = `Here you go:
{"correction": "show me all customers from casablanca", "tables": ["customers"], "filters": {"city": "Casablanca"}, "actions": "list", "language": "english"}`
