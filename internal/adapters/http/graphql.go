package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/mapcore/cluster"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	latLngType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LatLng",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"nw": &graphql.Field{Type: latLngType},
			"se": &graphql.Field{Type: latLngType},
		},
	})

	stationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Station",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: latLngType},
			"status":   &graphql.Field{Type: graphql.String},
			"distance": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if st, ok := p.Source.(domain.Station); ok && st.Distance != nil {
						return *st.Distance, nil
					}
					return nil, nil
				},
			},
		},
	})

	clusterItemType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "ClusterItem",
		Description: "A single station or an aggregate of nearby stations",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"lat":         &graphql.Field{Type: graphql.Float},
			"lng":         &graphql.Field{Type: graphql.Float},
			"cluster":     &graphql.Field{Type: graphql.Boolean},
			"point_count": &graphql.Field{Type: graphql.Int},
			"point_ids":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"session_id": &graphql.Field{Type: graphql.String},
			"provider":   &graphql.Field{Type: graphql.String},
			"mounted":    &graphql.Field{Type: graphql.Boolean},
			"markers":    &graphql.Field{Type: graphql.Int},
			"polylines":  &graphql.Field{Type: graphql.Int},
			"polygons":   &graphql.Field{Type: graphql.Int},
			"region": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
				Name: "Region",
				Fields: graphql.Fields{
					"center": &graphql.Field{Type: latLngType},
					"zoom":   &graphql.Field{Type: graphql.Float},
					"bounds": &graphql.Field{Type: boundsType},
				},
			})},
		},
	})

	boundsArgs := graphql.FieldConfigArgument{
		"nw_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"nw_lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"se_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"se_lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}
	boundsOf := func(args map[string]any) domain.Bounds {
		return domain.Bounds{
			NW: domain.LatLng{Lat: args["nw_lat"].(float64), Lng: args["nw_lng"].(float64)},
			SE: domain.LatLng{Lat: args["se_lat"].(float64), Lng: args["se_lng"].(float64)},
		}
	}
	withArgs := func(base graphql.FieldConfigArgument, extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
		out := graphql.FieldConfigArgument{}
		for k, v := range base {
			out[k] = v
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"clusters": &graphql.Field{
				Type:        graphql.NewList(clusterItemType),
				Description: "Clustered stations of a viewport",
				Args: withArgs(boundsArgs, graphql.FieldConfigArgument{
					"zoom": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				}),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					items, err := deps.Clusters.Clusters(p.Context, boundsOf(p.Args), p.Args["zoom"].(float64))
					if err != nil {
						return nil, err
					}
					return clusterRows(items), nil
				},
			},
			"stations": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "Stations inside a viewport",
				Args: withArgs(boundsArgs, graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 200},
				}),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Stations.InBounds(p.Context, boundsOf(p.Args), p.Args["limit"].(int))
				},
			},
			"stationsNearby": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "Stations near a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					center := domain.LatLng{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					return deps.Stations.FindNearby(p.Context, center, p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Current region and overlay counts of a map session",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Sessions.Snapshot(p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// clusterRows flattens cluster items for the ClusterItem type.
func clusterRows(items []cluster.Item) []map[string]any {
	rows := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if it.IsCluster() {
			rows = append(rows, map[string]any{
				"id":          it.Cluster.ID,
				"lat":         it.Cluster.Lat,
				"lng":         it.Cluster.Lng,
				"cluster":     true,
				"point_count": it.Cluster.PointCount,
				"point_ids":   it.Cluster.PointIDs,
			})
			continue
		}
		rows = append(rows, map[string]any{
			"id":          it.Point.ID,
			"lat":         it.Point.Lat,
			"lng":         it.Point.Lng,
			"cluster":     false,
			"point_count": 1,
			"point_ids":   []string{it.Point.ID},
		})
	}
	return rows
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
