package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/treegar/admin-console/internal/confirm"
	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
	"github.com/treegar/admin-console/internal/session"
)

type (
	listFunc[T any] func(context.Context, query.Filters, model.PageRequest) (model.Page[T], error)
	getFunc[T any]  func(context.Context, string) (T, error)
)

// protected is withApp behind the session guard.
func protected(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireView(cmd.Context(), session.ViewProtected); err != nil {
			return err
		}
		return run(cmd, args, a)
	})
}

func listCmd[T any](use, short string, pick func(*app) listFunc[T]) *cobra.Command {
	var lf listFlags
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, a *app) error {
			f, page, err := lf.parse()
			if err != nil {
				return err
			}
			p, err := pick(a)(cmd.Context(), f, page)
			if err != nil {
				return err
			}
			return printPage(cmd, p)
		}),
	}
	lf.bind(c)
	return c
}

func getCmd[T any](use, short string, pick func(*app) getFunc[T]) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: protected(func(cmd *cobra.Command, args []string, a *app) error {
			v, err := pick(a)(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		}),
	}
}

func showCmd[T any](use, short string, pick func(*app) func(context.Context) (T, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, a *app) error {
			v, err := pick(a)(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		}),
	}
}

// dataCmd decodes --data into Req and hands it to do.
func dataCmd[Req any](use, short string, args cobra.PositionalArgs, do func(cmd *cobra.Command, args []string, a *app, req Req) (any, error)) *cobra.Command {
	var data string
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: protected(func(cmd *cobra.Command, args []string, a *app) error {
			req, err := decodeData[Req](data)
			if err != nil {
				return err
			}
			out, err := do(cmd, args, a, req)
			if err != nil {
				return submitError[Req](err)
			}
			if out == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "done")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), out)
		}),
	}
	c.Flags().StringVar(&data, "data", "", "JSON payload, inline or @file")
	return c
}

// reviewCmd runs a decision on nargs ids after confirmation. withReason
// adds a required --reason flag.
func reviewCmd(use, short string, nargs int, withReason bool, prompt func(args []string) confirm.Prompt, do func(ctx context.Context, a *app, args []string, reason string) error) *cobra.Command {
	var yes bool
	var reason string
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: protected(func(cmd *cobra.Command, args []string, a *app) error {
			if err := confirm.Require(cmd.Context(), confirmer(cmd, yes), prompt(args)); err != nil {
				return err
			}
			if err := do(cmd.Context(), a, args, reason); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "done")
			return nil
		}),
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	if withReason {
		c.Flags().StringVar(&reason, "reason", "", "reason shown to the requester")
		_ = c.MarkFlagRequired("reason")
	}
	return c
}

func group(use, short string, subs ...*cobra.Command) *cobra.Command {
	c := &cobra.Command{Use: use, Short: short}
	c.AddCommand(subs...)
	return c
}

func resourceCommands() []*cobra.Command {
	return []*cobra.Command{
		showCmd("dashboard", "Show headline figures", func(a *app) func(context.Context) (model.DashboardStats, error) {
			return a.admin.Dashboard.Stats
		}),
		companyCommands(),
		userCommands(),
		roleCommands(),
		showCmd("permissions", "List every permission", func(a *app) func(context.Context) ([]model.Permission, error) {
			return a.admin.Permissions.List
		}),
		customerCommands(),
		kycRequirementCommands(),
		group("transactions", "Browse the ledger",
			listCmd("list", "List transactions", func(a *app) listFunc[model.Transaction] { return a.admin.Transactions.List }),
			getCmd("get <id>", "Show one transaction", func(a *app) getFunc[model.Transaction] { return a.admin.Transactions.Get }),
		),
		transferCommands(),
		feeCommands(),
	}
}

func companyCommands() *cobra.Command {
	return group("companies", "Onboard and review companies",
		listCmd("list", "List companies", func(a *app) listFunc[model.Company] { return a.admin.Companies.List }),
		getCmd("get <id>", "Show one company", func(a *app) getFunc[model.Company] { return a.admin.Companies.Get }),
		showCmd("stats", "Count companies by status", func(a *app) func(context.Context) (model.CompanyStats, error) {
			return a.admin.Companies.Stats
		}),
		dataCmd("create", "Create a company", cobra.NoArgs, func(cmd *cobra.Command, _ []string, a *app, req model.CreateCompanyRequest) (any, error) {
			return a.admin.Companies.Create(cmd.Context(), req)
		}),
		reviewCmd("approve <id>", "Approve a pending company", 1, false,
			func(args []string) confirm.Prompt { return confirm.Prompt{Title: "Approve company " + args[0]} },
			func(ctx context.Context, a *app, args []string, _ string) error { return a.admin.Companies.Approve(ctx, args[0]) }),
		reviewCmd("deny <id>", "Deny a pending company", 1, true,
			func(args []string) confirm.Prompt {
				return confirm.Prompt{Title: "Deny company " + args[0], Detail: "The company will not be able to transact."}
			},
			func(ctx context.Context, a *app, args []string, reason string) error {
				return a.admin.Companies.Deny(ctx, args[0], model.DenyCompanyRequest{Reason: reason})
			}),
	)
}

func userCommands() *cobra.Command {
	setActive := func(active bool) func(context.Context, *app, []string, string) error {
		return func(ctx context.Context, a *app, args []string, _ string) error {
			return a.admin.Users.SetActive(ctx, args[0], active)
		}
	}
	return group("users", "Manage back-office operators",
		listCmd("list", "List operators", func(a *app) listFunc[model.User] { return a.admin.Users.List }),
		dataCmd("create", "Create an operator", cobra.NoArgs, func(cmd *cobra.Command, _ []string, a *app, req model.CreateUserRequest) (any, error) {
			return a.admin.Users.Create(cmd.Context(), req)
		}),
		dataCmd("update <id>", "Update an operator", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string, a *app, req model.UpdateUserRequest) (any, error) {
			return a.admin.Users.Update(cmd.Context(), args[0], req)
		}),
		reviewCmd("activate <id>", "Re-enable an operator", 1, false,
			func(args []string) confirm.Prompt { return confirm.Prompt{Title: "Activate operator " + args[0]} },
			setActive(true)),
		reviewCmd("deactivate <id>", "Disable an operator", 1, false,
			func(args []string) confirm.Prompt {
				return confirm.Prompt{Title: "Deactivate operator " + args[0], Detail: "Their sessions stop working immediately."}
			},
			setActive(false)),
	)
}

func roleCommands() *cobra.Command {
	return group("roles", "Manage roles and their permissions",
		listCmd("list", "List roles", func(a *app) listFunc[model.Role] { return a.admin.Roles.List }),
		dataCmd("create", "Create a role", cobra.NoArgs, func(cmd *cobra.Command, _ []string, a *app, req model.CreateRoleRequest) (any, error) {
			return a.admin.Roles.Create(cmd.Context(), req)
		}),
		dataCmd("set-permissions <id>", "Replace a role's permissions", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string, a *app, req model.UpdateRolePermissionsRequest) (any, error) {
			return nil, a.admin.Roles.UpdatePermissions(cmd.Context(), args[0], req)
		}),
	)
}

func customerCommands() *cobra.Command {
	return group("customers", "Browse customers and review KYC",
		listCmd("list", "List customers", func(a *app) listFunc[model.Customer] { return a.admin.Customers.List }),
		getCmd("get <id>", "Show one customer", func(a *app) getFunc[model.Customer] { return a.admin.Customers.Get }),
		getCmd("documents <id>", "List a customer's KYC documents", func(a *app) getFunc[[]model.KYCDocument] {
			return a.admin.Customers.Documents
		}),
		reviewCmd("approve-document <customer-id> <document-id>", "Approve a KYC document", 2, false,
			func(args []string) confirm.Prompt { return confirm.Prompt{Title: "Approve document " + args[1]} },
			func(ctx context.Context, a *app, args []string, _ string) error {
				return a.admin.Customers.ApproveDocument(ctx, args[0], args[1])
			}),
		reviewCmd("reject-document <customer-id> <document-id>", "Reject a KYC document", 2, true,
			func(args []string) confirm.Prompt {
				return confirm.Prompt{Title: "Reject document " + args[1], Detail: "The customer will be asked to upload it again."}
			},
			func(ctx context.Context, a *app, args []string, reason string) error {
				return a.admin.Customers.RejectDocument(ctx, args[0], args[1], model.RejectDocumentRequest{Reason: reason})
			}),
	)
}

func kycRequirementCommands() *cobra.Command {
	return group("kyc-requirements", "Per-level KYC rules",
		showCmd("list", "List KYC levels", func(a *app) func(context.Context) ([]model.KYCRequirement, error) {
			return a.admin.Customers.Requirements
		}),
		dataCmd("update <id>", "Update a KYC level", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string, a *app, req model.UpdateKYCRequirementRequest) (any, error) {
			return a.admin.Customers.UpdateRequirement(cmd.Context(), args[0], req)
		}),
	)
}

func transferCommands() *cobra.Command {
	var comment string
	approve := reviewCmd("approve <id>", "Release a pending transfer", 1, false,
		func(args []string) confirm.Prompt {
			return confirm.Prompt{Title: "Approve transfer " + args[0], Detail: "Funds leave the customer's account."}
		},
		func(ctx context.Context, a *app, args []string, _ string) error {
			return a.admin.Transfers.Approve(ctx, args[0], model.ApproveTransferRequest{Comment: comment})
		})
	approve.Flags().StringVar(&comment, "comment", "", "note stored with the approval")

	return group("transfers", "Review outbound transfers",
		listCmd("list", "List all transfers", func(a *app) listFunc[model.Transfer] { return a.admin.Transfers.List }),
		listCmd("pending", "List transfers awaiting approval", func(a *app) listFunc[model.Transfer] { return a.admin.Transfers.ListPending }),
		approve,
		reviewCmd("reject <id>", "Reject a pending transfer", 1, true,
			func(args []string) confirm.Prompt { return confirm.Prompt{Title: "Reject transfer " + args[0]} },
			func(ctx context.Context, a *app, args []string, reason string) error {
				return a.admin.Transfers.Reject(ctx, args[0], model.RejectTransferRequest{Reason: reason})
			}),
	)
}

func feeCommands() *cobra.Command {
	return group("fees", "Inflow fee schedules",
		listCmd("list", "List inflow fees", func(a *app) listFunc[model.InflowFee] { return a.admin.InflowFees.List }),
		dataCmd("create", "Create an inflow fee", cobra.NoArgs, func(cmd *cobra.Command, _ []string, a *app, req model.CreateInflowFeeRequest) (any, error) {
			return a.admin.InflowFees.Create(cmd.Context(), req)
		}),
		dataCmd("update <id>", "Update an inflow fee", cobra.ExactArgs(1), func(cmd *cobra.Command, args []string, a *app, req model.UpdateInflowFeeRequest) (any, error) {
			return a.admin.InflowFees.Update(cmd.Context(), args[0], req)
		}),
	)
}
