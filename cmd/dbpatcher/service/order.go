package service

import (
	"fmt"

	"github.com/lyzr/dbpatcher/cmd/dbpatcher/models"
	common "github.com/lyzr/dbpatcher/common/models"
)

// recommendedOrder is the order in which object kinds should be installed
var recommendedOrder = map[common.ObjectType]int{
	common.TypeSequence: 0,
	common.TypeTable:    1,
	common.TypeView:     2,
	common.TypeIndex:    3,
	common.TypeFunction: 4,
	common.TypeTrigger:  5,
	common.TypeScript:   6,
}

const recommendedOrderText = "sequences, tables, views, indexes, functions, triggers, scripts"

// OrderWarnings lists every item that comes after an item of a kind
// recommended to be installed later
func OrderWarnings(items []models.DraftItem) []string {
	warnings := []string{}

	latest := -1
	var latestItem models.DraftItem
	for _, item := range items {
		rank := recommendedOrder[item.Type]
		if rank < latest {
			warnings = append(warnings, fmt.Sprintf("%s is placed after %s; recommended order is %s",
				item, latestItem, recommendedOrderText))
			continue
		}
		latest = rank
		latestItem = item
	}

	return warnings
}
