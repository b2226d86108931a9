package mongodb

import (
	"go.mongodb.org/mongo-driver/mongo/options"
)

func optionsWithArrayFilter(filters ...interface{}) *options.UpdateOptions {
	return options.Update().SetArrayFilters(options.ArrayFilters{Filters: filters})
}
