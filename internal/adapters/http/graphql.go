package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geoplan/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
// Field names follow the JSON tags of the domain types so that the default
// resolver can read them.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"query":        &graphql.Field{Type: graphql.String},
			"displayName":  &graphql.Field{Type: graphql.String},
			"lat":          &graphql.Field{Type: graphql.Float},
			"lon":          &graphql.Field{Type: graphql.Float},
			"bounding_box": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"geometry_type": &graphql.Field{
				Type:        graphql.String,
				Description: "GeoJSON type of the outline, if any",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if place, ok := p.Source.(domain.GeocodedPlace); ok && place.GeoJSON != nil {
						return place.GeoJSON.Type, nil
					}
					return nil, nil
				},
			},
			"geometry": &graphql.Field{
				Type:        graphql.String,
				Description: "GeoJSON coordinates, JSON-encoded",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if place, ok := p.Source.(domain.GeocodedPlace); ok && place.GeoJSON != nil {
						return string(place.GeoJSON.Coordinates), nil
					}
					return nil, nil
				},
			},
		},
	})

	stepType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Step",
		Fields: graphql.Fields{
			"instruction": &graphql.Field{Type: graphql.String},
			"distance":    &graphql.Field{Type: graphql.Float},
			"duration":    &graphql.Field{Type: graphql.Float},
			"type":        &graphql.Field{Type: graphql.String},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"origin":      &graphql.Field{Type: placeType},
			"destination": &graphql.Field{Type: placeType},
			"distance":    &graphql.Field{Type: graphql.Float},
			"duration":    &graphql.Field{Type: graphql.Float},
			"summary":     &graphql.Field{Type: graphql.String},
			"steps":       &graphql.Field{Type: graphql.NewList(stepType)},
			"profile": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if r, ok := p.Source.(*domain.RouteResult); ok {
						return string(r.Profile), nil
					}
					return nil, nil
				},
			},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlanRecord",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"prompt":   &graphql.Field{Type: graphql.String},
			"reply":    &graphql.Field{Type: graphql.String},
			"warnings": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"planned": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of actions the planner proposed",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return len(p.Source.(domain.PlanRecord).Actions), nil
				},
			},
			"executed": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of actions that succeeded",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return len(p.Source.(domain.PlanRecord).Executed), nil
				},
			},
			"created_at": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.PlanRecord).CreatedAt.Format(time.RFC3339), nil
				},
			},
		},
	})

	execute := func(p graphql.ResolveParams, action domain.Action) (any, error) {
		if deps.Actions == nil {
			return nil, fmt.Errorf("executor not configured")
		}
		res, err := deps.Actions.Execute(p.Context, action, nil)
		if err != nil {
			return nil, err
		}
		return res.Payload, nil
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"geocode": &graphql.Field{
				Type:        placeType,
				Description: "Resolve one place",
				Args: graphql.FieldConfigArgument{
					"query":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"polygon": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return execute(p, domain.Action{
						Type:   string(domain.ActionPlace),
						Params: map[string]any{"query": p.Args["query"], "include_polygon": p.Args["polygon"]},
					})
				},
			},
			"search": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Find several places matching a category or chain",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return execute(p, domain.Action{
						Type:   string(domain.ActionSearch),
						Params: map[string]any{"query": p.Args["query"], "limit": p.Args["limit"]},
					})
				},
			},
			"area": &graphql.Field{
				Type:        placeType,
				Description: "Outline of an administrative zone",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return execute(p, domain.Action{
						Type:   string(domain.ActionArea),
						Params: map[string]any{"query": p.Args["query"]},
					})
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Route between two free-text endpoints",
				Args: graphql.FieldConfigArgument{
					"from":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"to":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"profile": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "driving"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return execute(p, domain.Action{
						Type: string(domain.ActionRoute),
						Params: map[string]any{
							"origin":      p.Args["from"],
							"destination": p.Args["to"],
							"profile":     p.Args["profile"],
						},
					})
				},
			},
			"plans": &graphql.Field{
				Type:        graphql.NewList(planType),
				Description: "Recent assistant exchanges, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.History == nil {
						return nil, fmt.Errorf("plan history not configured")
					}
					page, err := deps.History.Recent(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					return page.Records, nil
				},
			},
			"plan": &graphql.Field{
				Type:        planType,
				Description: "One assistant exchange by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.History == nil {
						return nil, fmt.Errorf("plan history not configured")
					}
					rec, err := deps.History.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return *rec, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
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

		return c.JSON(result)
	}
}
