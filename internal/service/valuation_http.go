package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/transport/http"
)

// Operation names reported to middleware via transport.Transporter.
const (
	OperationGetValuation    = "/carvaluator.v1.Valuation/GetValuation"
	OperationCreateValuation = "/carvaluator.v1.Valuation/CreateValuation"
)

// RegisterValuationHTTPServer routes the valuation endpoints on s. Handlers
// run the server's middleware chain the same way generated kratos stubs do.
func RegisterValuationHTTPServer(s *http.Server, svc *ValuationService) {
	r := s.Route("/")
	r.GET("/valuations/{vrm}", getValuationHandler(svc))
	r.PUT("/valuations/{vrm}", createValuationHandler(svc))
}

func getValuationHandler(svc *ValuationService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in GetValuationRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationGetValuation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.GetValuation(ctx, req.(*GetValuationRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ValuationReply))
	}
}

func createValuationHandler(svc *ValuationService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in CreateValuationRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationCreateValuation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return svc.CreateValuation(ctx, req.(*CreateValuationRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ValuationReply))
	}
}
