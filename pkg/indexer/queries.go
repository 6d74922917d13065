package indexer

// GraphQL documents sent to the indexer.
// Exchange queries share one selection set and differ only by the condition column.

const exchangeFields = `
      nodes {
        asset
        amount
        pair
        price
        side
        fee
        timestamp
        orderInitializer
        orderTaker
        instructionIndex
      }
      pageInfo {
        hasNextPage
        endCursor
      }`

const exchangesByInitializerQuery = `query ExchangesByInitializer($wallet: Address!, $first: Int!, $after: Cursor) {
  allStarAtlasExchanges(
    first: $first
    condition: {orderInitializer: $wallet}
    orderBy: TIMESTAMP_DESC
    after: $after
  ) {` + exchangeFields + `
  }
}`

const exchangesByTakerQuery = `query ExchangesByTaker($wallet: Address!, $first: Int!, $after: Cursor) {
  allStarAtlasExchanges(
    first: $first
    condition: {orderTaker: $wallet}
    orderBy: TIMESTAMP_DESC
    after: $after
  ) {` + exchangeFields + `
  }
}`

const votesByWalletQuery = `query VotesByWallet($wallet: String!, $first: Int = 100, $after: Cursor) {
  allStarAtlasProposalVotes(
    condition: { walletPublicKey: $wallet }
    orderBy: CREATED_AT_DESC
    first: $first
    after: $after
  ) {
    totalCount
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      id
      walletPublicKey
      createdAt
      proposalId
      proposalHash
      voteResult
      votingPower
      message
      signature
      starAtlasProposalByProposalId {
        id
        title
        pipNumber
      }
    }
  }
}`

const proposalByIDQuery = `query ProposalById($id: String!) {
  starAtlasProposalById(id: $id) {
    id
    title
    pipNumber
    proposalHash
    createdAt
  }
}`

const votesByProposalQuery = `query VotesByProposalId($proposalId: String!) {
  allStarAtlasProposalVotes(condition: { proposalId: $proposalId }) {
    nodes {
      voteResult
      votingPower
      walletPublicKey
      createdAt
    }
  }
}`

const proposalsWithVotesQuery = `query ProposalsWithVotes {
  allStarAtlasProposals(orderBy: CREATED_AT_DESC) {
    nodes {
      id
      title
      pipNumber
      proposalHash
      createdAt
      starAtlasProposalVotesByProposalId {
        nodes {
          voteResult
          votingPower
          walletPublicKey
          createdAt
        }
      }
    }
  }
}`
