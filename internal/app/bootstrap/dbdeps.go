// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/teamgather/internal/app/system/cache"
	"github.com/dalemusser/teamgather/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Cache         *cache.Cache
	Txn           *txn.Runner
}
