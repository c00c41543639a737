package repository

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jupiterclapton/cenackle/services/realtime-service/internal/core/domain"
)

// Neo4jGraphRepo porte le graphe social. L'arête FOLLOWS est la source de
// vérité UNIQUE de la relation : followers et following sont la même arête
// lue dans les deux sens, donc l'invariant "a suit b <=> b est suivi par a"
// tient par construction (pas de double écriture à réconcilier).
type Neo4jGraphRepo struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jGraphRepo(driver neo4j.DriverWithContext) *Neo4jGraphRepo {
	return &Neo4jGraphRepo{driver: driver}
}

// EnsureSchema crée la contrainte d'unicité sur User.id (et l'index qui va
// avec, pour des lookups O(1)). Idempotent.
func (r *Neo4jGraphRepo) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`
		_, err := tx.Run(ctx, q, nil)
		return nil, err
	})
	return err
}

// CreateRelation est idempotent : MERGE crée les noeuds et l'arête
// uniquement s'ils n'existent pas déjà.
func (r *Neo4jGraphRepo) CreateRelation(ctx context.Context, actorID, targetID string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `
			MERGE (a:User {id: $actorId})
			MERGE (b:User {id: $targetId})
			MERGE (a)-[r:FOLLOWS]->(b)
			ON CREATE SET r.created_at = datetime()
		`
		_, err := tx.Run(ctx, q, map[string]any{"actorId": actorID, "targetId": targetID})
		return nil, err
	})
	return err
}

// DeleteRelation est idempotent : MATCH ne trouve rien = rien à supprimer.
func (r *Neo4jGraphRepo) DeleteRelation(ctx context.Context, actorID, targetID string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `
			MATCH (a:User {id: $actorId})-[r:FOLLOWS]->(b:User {id: $targetId})
			DELETE r
		`
		_, err := tx.Run(ctx, q, map[string]any{"actorId": actorID, "targetId": targetID})
		return nil, err
	})
	return err
}

// GetRelationStatus checke les deux sens en une seule requête.
func (r *Neo4jGraphRepo) GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		q := `
			MATCH (a:User {id: $actorId}), (b:User {id: $targetId})
			RETURN EXISTS((a)-[:FOLLOWS]->(b)) AS following,
			       EXISTS((b)-[:FOLLOWS]->(a)) AS followedBy
		`
		res, err := tx.Run(ctx, q, map[string]any{"actorId": actorID, "targetId": targetID})
		if err != nil {
			return nil, err
		}

		if res.Next(ctx) {
			rec := res.Record()
			following, _ := rec.Get("following")
			followedBy, _ := rec.Get("followedBy")
			return &domain.RelationStatus{
				IsFollowing:  following.(bool),
				IsFollowedBy: followedBy.(bool),
			}, nil
		}
		// Un des deux noeuds n'existe pas encore dans le graphe : false/false
		return &domain.RelationStatus{}, nil
	})

	if err != nil {
		return nil, err
	}
	return result.(*domain.RelationStatus), nil
}

// StreamFollowingIDs streame par paquets les comptes que userID suit.
// Curseur natif Neo4j : on n'accumule jamais plus d'un batch en RAM.
func (r *Neo4jGraphRepo) StreamFollowingIDs(ctx context.Context, userID string, batchSize int, yield func([]string) error) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// Pas de ExecuteRead ici : on consomme le résultat manuellement
	q := `MATCH (u:User {id: $userId})-[:FOLLOWS]->(f:User) RETURN f.id AS followedId`

	res, err := session.Run(ctx, q, map[string]any{"userId": userID})
	if err != nil {
		return err
	}

	batch := make([]string, 0, batchSize)
	for res.Next(ctx) {
		id, _ := res.Record().Get("followedId")
		batch = append(batch, id.(string))

		if len(batch) >= batchSize {
			if err := yield(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := yield(batch); err != nil {
			return err
		}
	}

	return res.Err()
}
