package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kataloghq/rentcycle/internal/app"
	"github.com/kataloghq/rentcycle/internal/domain"
)

// ContractResponse is the API representation of a contract.
type ContractResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	BookingID string `json:"booking_id" doc:"Originating booking"`
	RoomID    string `json:"room_id" doc:"Rented room"`
	TenantID  string `json:"tenant_id" doc:"Renting tenant"`
	HostID    string `json:"host_id" doc:"Owning host"`
	StartDate string `json:"start_date" doc:"Rental start date (YYYY-MM-DD)"`
	EndDate   string `json:"end_date" doc:"Rental end date (YYYY-MM-DD)"`
	Rent      int64  `json:"rent" doc:"Rent in the smallest currency unit"`
	Status    string `json:"status" doc:"Lifecycle state"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toContractResponse(c domain.Contract) ContractResponse {
	return ContractResponse{
		ID:        c.ID,
		BookingID: c.BookingID,
		RoomID:    c.RoomID,
		TenantID:  c.TenantID,
		HostID:    c.HostID,
		StartDate: c.StartDate.Format(jsonDateFormat),
		EndDate:   c.EndDate.Format(jsonDateFormat),
		Rent:      c.Rent,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt.Format(jsonTimeFormat),
		UpdatedAt: c.UpdatedAt.Format(jsonTimeFormat),
	}
}

type CreateContractInput struct {
	ActorParams
	Body struct {
		BookingID string `json:"booking_id" minLength:"1" doc:"Approved booking to contract"`
		Rent      int64  `json:"rent" minimum:"1" doc:"Rent in the smallest currency unit"`
	}
}

type ContractOutput struct {
	Body ContractResponse
}

type GetContractInput struct {
	ID string `path:"id" doc:"Contract ID"`
}

type ListContractsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListContractsOutput struct {
	Body []ContractResponse
}

type ContractEventInput struct {
	ActorParams
	ID string `path:"id" doc:"Contract ID"`
}

func registerContracts(api huma.API, coord *app.Coordinator) {
	huma.Register(api, huma.Operation{
		OperationID: "create-contract",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts",
		Summary:     "Create a contract from an approved booking",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *CreateContractInput) (*ContractOutput, error) {
		contract, err := coord.CreateContract(ctx, input.actor(), input.Body.BookingID, input.Body.Rent)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(contract)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-contract",
		Method:      http.MethodGet,
		Path:        "/api/v1/contracts/{id}",
		Summary:     "Get a contract by ID",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *GetContractInput) (*ContractOutput, error) {
		contract, err := coord.GetContract(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(contract)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-contracts",
		Method:      http.MethodGet,
		Path:        "/api/v1/contracts",
		Summary:     "List contracts",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ListContractsInput) (*ListContractsOutput, error) {
		contracts, err := coord.ListContracts(ctx, statusFilter(input.Status, input.Limit, input.Offset))
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]ContractResponse, len(contracts))
		for i, c := range contracts {
			resp[i] = toContractResponse(c)
		}
		return &ListContractsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-contract",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/{id}/cancel",
		Summary:     "Cancel a contract before payment",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ContractEventInput) (*ContractOutput, error) {
		contract, err := coord.CancelContract(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(contract)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "terminate-contract",
		Method:      http.MethodPost,
		Path:        "/api/v1/contracts/{id}/terminate",
		Summary:     "Terminate an active contract early",
		Tags:        []string{"Contracts"},
	}, func(ctx context.Context, input *ContractEventInput) (*ContractOutput, error) {
		contract, err := coord.TerminateContract(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ContractOutput{Body: toContractResponse(contract)}, nil
	})
}
