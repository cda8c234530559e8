package cli

import (
	"fmt"

	"okinoko_gov/host"
	"okinoko_gov/internal/node"

	"github.com/spf13/cobra"
)

func stakeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Manage voting ids and their stake",
	}
	cmd.AddCommand(stakeCreateCommand())
	cmd.AddCommand(stakeAddCommand())
	cmd.AddCommand(stakeRemoveCommand())
	cmd.AddCommand(stakeShowCommand())
	cmd.AddCommand(stakeRewardsCommand())
	return cmd
}

func stakeCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Mint an empty voting id to the sender",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				id, err := s.node.Staking.CreateID(tx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		}),
	}
}

func stakeAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <voting-id> <amount>",
		Short: "Stake governance tokens behind a voting id",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				b, err := tx.Withdraw(node.FeeToken, amount)
				if err != nil {
					return err
				}
				units, err := s.node.Staking.Stake(tx, votingProof(id), b)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), units.String())
				return nil
			})
		}),
	}
}

func stakeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <voting-id> <units>",
		Short: "Unstake pool units once the voting lock has passed",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			units, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				b, err := s.node.Staking.Unstake(tx, votingProof(id), units)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), b.Amount.String())
				return tx.Deposit(tx.Sender(), b)
			})
		}),
	}
}

func stakeShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <voting-id>",
		Short: "Print the units and lock of a voting id",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				ident, err := s.node.Staking.Identity(tx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "units: %s\nlocked until: %d\n", ident.Units, ident.VotingUntil)
				return nil
			})
		}),
	}
}

func stakeRewardsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards <amount>",
		Short: "Donate tokens to the staking pool, raising the value of every unit",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return s.exec(cmd.Context(), func(tx *host.Tx) error {
				b, err := tx.Withdraw(node.FeeToken, amount)
				if err != nil {
					return err
				}
				return s.node.Staking.AddRewards(tx, b)
			})
		}),
	}
}
