// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/practixhq/ugc-pipeline

package ugcstore

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// bsonFindOptions builds a Find options set applying skip/limit pagination
// ordered by created_at, tolerating zero/negative values as "unset".
func bsonFindOptions(skip, limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}
