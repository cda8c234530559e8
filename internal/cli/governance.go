package cli

import (
	"fmt"
	"strconv"

	"okinoko_gov/contract"
	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/internal/config"
	"okinoko_gov/internal/node"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func receiptProof(id uint64) sdk.NonFungibleProof {
	return sdk.NonFungibleProof{Resource: node.ReceiptResource, ID: id}
}

func votingProof(id uint64) sdk.NonFungibleProof {
	return sdk.NonFungibleProof{Resource: node.VotingIDResource, ID: id}
}

func parseID(v string) (uint64, error) {
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", v)
	}
	return id, nil
}

func parseAmount(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", v)
	}
	return d, nil
}

// configParameters turns the config's init values into governance parameters.
func configParameters(cfg *config.Config) (*gov.GovernanceParameters, error) {
	fee, err := parseAmount(cfg.Fee)
	if err != nil {
		return nil, fmt.Errorf("fee: %w", err)
	}
	quorum, err := parseAmount(cfg.Quorum)
	if err != nil {
		return nil, fmt.Errorf("quorum: %w", err)
	}
	threshold, err := parseAmount(cfg.ApprovalThreshold)
	if err != nil {
		return nil, fmt.Errorf("approval threshold: %w", err)
	}
	return &gov.GovernanceParameters{
		Fee:               fee,
		ProposalDuration:  cfg.ProposalDuration,
		Quorum:            quorum,
		ApprovalThreshold: threshold,
		MaxSubmitDelay:    cfg.MaxSubmitDelay,
	}, nil
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Deploy governance, staking and the reentrancy proxy",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			params, err := configParameters(s.cfg)
			if err != nil {
				return err
			}
			return s.node.Bootstrap(cmd.Context(), parseAddress(s.cfg.Admin), s.at, params)
		}),
	}
}

func mintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <account> <amount>",
		Short: "Mint governance tokens (admin only)",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			to := parseAddress(args[0])
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				return tx.Mint(node.FeeToken, amount, to)
			})
		}),
	}
}

func balanceCommand() *cobra.Command {
	var asset string
	cmd := &cobra.Command{
		Use:   "balance [address]",
		Short: "Show a fungible balance (defaults to the sender)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			owner := s.sender
			if len(args) == 1 {
				owner = parseAddress(args[0])
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				bal, err := tx.Balance(owner, parseAsset(asset))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), bal.String())
				return nil
			})
		}),
	}
	cmd.Flags().StringVar(&asset, "asset", node.FeeToken.String(), "resource to show")
	return cmd
}

// stepFlags collects one proposal step from the command line.
type stepFlags struct {
	component    string
	badge        string
	method       string
	args         string
	returnBucket bool
	reentrancy   bool
}

func (f *stepFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.component, "component", "", "component the step calls")
	cmd.Flags().StringVar(&f.badge, "badge", "", "badge governance presents on the call")
	cmd.Flags().StringVar(&f.method, "method", "", "method to call")
	cmd.Flags().StringVar(&f.args, "args", "", "raw call arguments")
	cmd.Flags().BoolVar(&f.returnBucket, "return-bucket", false, "the call hands back tokens for the treasury")
	cmd.Flags().BoolVar(&f.reentrancy, "reentrancy", false, "run the call through the reentrancy proxy")
	_ = cmd.MarkFlagRequired("component")
	_ = cmd.MarkFlagRequired("method")
}

func (f *stepFlags) step() gov.ProposalStep {
	step := gov.ProposalStep{
		Component:    parseAddress(f.component),
		Method:       f.method,
		Args:         []byte(f.args),
		ReturnBucket: f.returnBucket,
		Reentrancy:   f.reentrancy,
	}
	if f.badge != "" {
		step.Badge = parseAsset(f.badge)
	}
	if !step.Component.IsComponent() {
		step.Component = sdk.Component(step.Component.Name())
	}
	return step
}

func proposeCommand() *cobra.Command {
	var (
		steps       stepFlags
		title       string
		description string
		pay         string
	)
	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Pay the fee and open a proposal in building status",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			var id uint64
			err := s.exec(cmd.Context(), func(tx *host.Tx) error {
				amount := decimal.Zero
				if pay != "" {
					var err error
					if amount, err = parseAmount(pay); err != nil {
						return err
					}
				} else {
					params, err := s.node.Gov.GetParameters(tx)
					if err != nil {
						return err
					}
					amount = params.Fee
				}
				payment, err := tx.Withdraw(node.FeeToken, amount)
				if err != nil {
					return err
				}
				change, pid, err := s.node.Gov.CreateProposal(tx, contract.ProposalInput{
					Title:       title,
					Description: description,
					FirstStep:   steps.step(),
				}, payment)
				if err != nil {
					return err
				}
				id = pid
				return tx.Deposit(tx.Sender(), change)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		}),
	}
	steps.bind(cmd)
	cmd.Flags().StringVar(&title, "title", "", "proposal title")
	cmd.Flags().StringVar(&description, "description", "", "proposal description")
	cmd.Flags().StringVar(&pay, "pay", "", "payment offered (defaults to the current fee)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func addStepCommand() *cobra.Command {
	var steps stepFlags
	cmd := &cobra.Command{
		Use:   "add-step <proposal-id>",
		Short: "Append a step to a proposal you hold the receipt of",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				return s.node.Gov.AddProposalStep(tx, receiptProof(id), steps.step())
			})
		}),
	}
	steps.bind(cmd)
	return cmd
}

func submitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <proposal-id>",
		Short: "Open voting on a proposal you hold the receipt of",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				status, err := s.node.Gov.SubmitProposal(tx, receiptProof(id))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			})
		}),
	}
}

func voteCommand() *cobra.Command {
	var votingID uint64
	cmd := &cobra.Command{
		Use:   "vote <proposal-id> <for|against>",
		Short: "Vote with the stake behind a voting id",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var forAgainst bool
			switch args[1] {
			case "for", "yes":
				forAgainst = true
			case "against", "no":
			default:
				return fmt.Errorf("vote must be for or against, got %q", args[1])
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				return s.node.Gov.VoteOnProposal(tx, id, forAgainst, votingProof(votingID))
			})
		}),
	}
	cmd.Flags().Uint64Var(&votingID, "voting-id", 0, "voting id to vote with")
	_ = cmd.MarkFlagRequired("voting-id")
	return cmd
}

func finishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "finish <proposal-id>",
		Short: "Tally a proposal after its deadline",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				status, err := s.node.Gov.FinishVoting(tx, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			})
		}),
	}
}

func executeCommand() *cobra.Command {
	var maxSteps int64
	cmd := &cobra.Command{
		Use:   "execute <proposal-id>",
		Short: "Run the next steps of an accepted proposal",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				return s.node.Gov.ExecuteProposalStep(tx, id, maxSteps)
			})
		}),
	}
	cmd.Flags().Int64Var(&maxSteps, "max-steps", 1, "steps to run in this transaction")
	return cmd
}

func reenterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reenter <proposal-id>",
		Short: "Run the step parked in the reentrancy proxy",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				return s.node.Proxy.Execute(tx, id)
			})
		}),
	}
}

func retrieveFeeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve-fee <proposal-id>",
		Short: "Return the bonded fee of an executed proposal to the receipt holder",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				fee, err := s.node.Gov.RetrieveFee(tx, receiptProof(id))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), fee.Amount.String())
				return tx.Deposit(tx.Sender(), fee)
			})
		}),
	}
}

func hurryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hurry <proposal-id> <minutes>",
		Short: "Shorten the voting period of an ongoing proposal (badge holders only)",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			minutes, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid duration %q", args[1])
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				return s.node.Gov.HurryProposal(tx, id, minutes)
			})
		}),
	}
}

func setParamsCommand() *cobra.Command {
	var (
		fee, quorum, threshold string
		duration, submitDelay  int64
	)
	cmd := &cobra.Command{
		Use:   "set-params",
		Short: "Change governance parameters (badge holders only)",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				current, err := s.node.Gov.GetParameters(tx)
				if err != nil {
					return err
				}
				p := *current
				flags := cmd.Flags()
				if flags.Changed("fee") {
					if p.Fee, err = parseAmount(fee); err != nil {
						return err
					}
				}
				if flags.Changed("quorum") {
					if p.Quorum, err = parseAmount(quorum); err != nil {
						return err
					}
				}
				if flags.Changed("threshold") {
					if p.ApprovalThreshold, err = parseAmount(threshold); err != nil {
						return err
					}
				}
				if flags.Changed("duration") {
					p.ProposalDuration = duration
				}
				if flags.Changed("submit-delay") {
					p.MaxSubmitDelay = submitDelay
				}
				return s.node.Gov.SetParameters(tx, p)
			})
		}),
	}
	cmd.Flags().StringVar(&fee, "fee", "", "proposal fee")
	cmd.Flags().StringVar(&quorum, "quorum", "", "minimum total votes")
	cmd.Flags().StringVar(&threshold, "threshold", "", "approval threshold as a fraction")
	cmd.Flags().Int64Var(&duration, "duration", 0, "voting period in minutes")
	cmd.Flags().Int64Var(&submitDelay, "submit-delay", 0, "building period in minutes")
	return cmd
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <proposal-id>",
		Short: "Print a proposal and its receipt as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				raw, err := s.node.Gov.ProposalJSON(tx, id)
				if err != nil {
					return err
				}
				claim, err := s.node.Gov.GetReceipt(tx, id)
				if err != nil {
					return err
				}
				receipt, err := gov.ToJSON(claim)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				fmt.Fprintln(cmd.OutOrStdout(), string(receipt))
				return nil
			})
		}),
	}
}

func paramsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the governance parameters, treasury and escrow",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				p, err := s.node.Gov.GetParameters(tx)
				if err != nil {
					return err
				}
				raw, err := gov.ToJSON(p)
				if err != nil {
					return err
				}
				treasury, err := s.node.Gov.TreasuryBalance(tx, node.FeeToken)
				if err != nil {
					return err
				}
				escrow, err := s.node.Gov.EscrowBalance(tx)
				if err != nil {
					return err
				}
				count, err := s.node.Gov.ProposalCount(tx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, string(raw))
				fmt.Fprintf(out, "proposals: %d\ntreasury: %s\nescrow: %s\n", count, treasury, escrow)
				return nil
			})
		}),
	}
}

func historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [proposal-id]",
		Short: "List archived events for a proposal, or the latest events",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			if s.node.Archive == nil {
				return fmt.Errorf("archive is disabled in the config")
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				events, err := s.node.Archive.Recent(cmd.Context(), "", limit)
				if err != nil {
					return err
				}
				for _, e := range events {
					fmt.Fprintf(out, "%d\t%s\t%s\n", e.Timestamp, e.TxID, e.Line)
				}
				return nil
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			events, err := s.node.Archive.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Fprintf(out, "%d\t%s\t%s\n", e.Timestamp, e.TxID, e.Line)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "events to show without a proposal id")
	return cmd
}
