package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	tagType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Tag",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.String},
			"value": &graphql.Field{Type: graphql.String},
		},
	})

	fountainType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Fountain",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"tags": &graphql.Field{
				Type: graphql.NewList(tagType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					f, ok := p.Source.(domain.Fountain)
					if !ok {
						return nil, nil
					}
					return sortedTags(f.Tags), nil
				},
			},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "WalkingRoute",
		Fields: graphql.Fields{
			"path":             &graphql.Field{Type: graphql.NewList(geoPointType)},
			"distance_meters":  &graphql.Field{Type: graphql.Float},
			"duration_seconds": &graphql.Field{Type: graphql.Float},
			"source":           &graphql.Field{Type: graphql.String},
		},
	})

	feedbackType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Feedback",
		Fields: graphql.Fields{
			"fountainId":   &graphql.Field{Type: graphql.String},
			"running":      &graphql.Field{Type: graphql.Int},
			"outOfService": &graphql.Field{Type: graphql.Int},
			"abandoned":    &graphql.Field{Type: graphql.Int},
		},
	})

	voteTypeEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "VoteType",
		Values: graphql.EnumValueConfigMap{
			string(domain.VoteRunning):      &graphql.EnumValueConfig{Value: string(domain.VoteRunning)},
			string(domain.VoteOutOfService): &graphql.EnumValueConfig{Value: string(domain.VoteOutOfService)},
			string(domain.VoteAbandoned):    &graphql.EnumValueConfig{Value: string(domain.VoteAbandoned)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"fountains": &graphql.Field{
				Type:        graphql.NewList(fountainType),
				Description: "All known drinking fountains",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Fountains.List(p.Context)
				},
			},
			"walkingRoute": &graphql.Field{
				Type:        routeType,
				Description: "Walking route between two points; falls back to a straight line",
				Args: graphql.FieldConfigArgument{
					"fromLat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"fromLon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"toLon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					from := domain.GeoPoint{Lat: p.Args["fromLat"].(float64), Lon: p.Args["fromLon"].(float64)}
					to := domain.GeoPoint{Lat: p.Args["toLat"].(float64), Lon: p.Args["toLon"].(float64)}
					if !from.Valid() || !to.Valid() {
						return nil, errors.New("coordinates out of range")
					}
					return deps.Routes.WalkingRoute(p.Context, from, to), nil
				},
			},
			"feedback": &graphql.Field{
				Type:        feedbackType,
				Description: "Vote counters for one fountain",
				Args: graphql.FieldConfigArgument{
					"fountainId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Feedback.Get(p.Context, p.Args["fountainId"].(string))
				},
			},
			"allFeedback": &graphql.Field{
				Type:        graphql.NewList(feedbackType),
				Description: "Vote counters for every fountain that has been seen",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Feedback.List(p.Context)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"vote": &graphql.Field{
				Type:        feedbackType,
				Description: "Record a status vote for a fountain",
				Args: graphql.FieldConfigArgument{
					"fountainId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"voteType":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(voteTypeEnum)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Feedback.Vote(p.Context, p.Args["fountainId"].(string), p.Args["voteType"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
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
		if result.HasErrors() {
			LoggerFromCtx(c.UserContext()).Warn("graphql errors",
				"operation", req.OperationName,
				"request_id", RequestIDFromCtx(c.UserContext()),
				"errors", len(result.Errors),
			)
		}

		return c.JSON(result)
	}
}
